package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/MakeNowJust/heredoc"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/reqdeck/internal/app"
	"github.com/unkn0wn-root/reqdeck/internal/bindings"
	"github.com/unkn0wn-root/reqdeck/internal/config"
	"github.com/unkn0wn-root/reqdeck/internal/ui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags globalFlags
	root := &cobra.Command{
		Use:   "reqdeck",
		Short: "Tabbed terminal HTTP client",
		Long: heredoc.Doc(`
			reqdeck is a terminal HTTP client with independent request tabs.

			Each tab owns one request and one environment. Placeholders such as
			{host} are replaced with environment values before sending. Completed
			requests are kept in a shared history that survives restarts.
		`),
		Example: heredoc.Doc(`
			reqdeck
			reqdeck --env-file dev.env
			reqdeck send https://{host}/users --env-file dev.env
			reqdeck history --clear
		`),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInteractive(cmd, flags)
		},
	}
	flags.register(root)
	root.AddCommand(
		newSendCmd(&flags),
		newHistoryCmd(&flags),
		newVersionCmd(),
	)
	return root
}

func runInteractive(cmd *cobra.Command, flags globalFlags) error {
	rt, err := newRuntime(cmd, flags, runtimeOptions{watch: true})
	if err != nil {
		return err
	}
	defer rt.close()

	core, err := app.New(contextOf(cmd), app.Options{
		Dispatcher: rt.dispatcher,
		Backend:    rt.backend,
		Watcher:    rt.watcher,
		Logger:     rt.logger,
	})
	if err != nil {
		return err
	}
	if flags.envFile != "" {
		_ = core.Apply(app.LoadEnvironment{Path: flags.envFile})
	}

	keys, src, err := bindings.Load(config.Dir())
	if err != nil {
		printWarning(cmd.ErrOrStderr(), err.Error()+"; using default key bindings")
		keys = bindings.DefaultMap()
	} else {
		rt.logger.Debug().Str("path", src.Path).Str("format", string(src.Format)).Msg("key bindings ready")
	}

	model := ui.New(ui.Config{
		App:      core,
		Bindings: keys,
		Layout:   rt.settings.Layout,
		Autosave: rt.settings.State.Autosave.Std(),
		Version:  version,
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(contextOf(cmd)))
	_, runErr := program.Run()
	if err := core.Close(); err != nil {
		rt.logger.Error().Err(err).Msg("final state save failed")
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printVersion(cmd.OutOrStdout())
			return nil
		},
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "reqdeck %s\n", version)
	fmt.Fprintf(w, "  commit: %s\n", commit)
	fmt.Fprintf(w, "  built:  %s\n", date)
	if sum, err := executableChecksum(); err == nil {
		fmt.Fprintf(w, "  sha256: %s\n", sum)
	} else {
		fmt.Fprintf(w, "  sha256: unavailable (%v)\n", err)
	}
}

func executableChecksum() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", err
	}
	f, err := os.Open(exe)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
