package main

import (
	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/reqdeck/internal/app"
)

func newHistoryCmd(global *globalFlags) *cobra.Command {
	var (
		clearAll bool
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the request history, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd, *global, runtimeOptions{})
			if err != nil {
				return err
			}
			defer rt.close()

			core, err := app.New(contextOf(cmd), app.Options{
				Dispatcher: rt.dispatcher,
				Backend:    rt.backend,
				Logger:     rt.logger,
			})
			if err != nil {
				return err
			}
			for _, n := range core.Notifications() {
				printWarning(cmd.ErrOrStderr(), n.Text)
			}

			if clearAll {
				if err := core.Apply(app.ClearHistory{}); err != nil {
					return err
				}
				if err := core.Close(); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "History cleared")
				return nil
			}

			items := core.Frame().History
			if limit > 0 && len(items) > limit {
				items = items[:limit]
			}
			printHistory(cmd.OutOrStdout(), items)
			// Read only: release the backend without rewriting state.
			if rt.backend != nil {
				return rt.backend.Close()
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Remove every history entry")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most n entries (0 shows all)")
	return cmd
}
