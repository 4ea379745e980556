package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/reqdeck/internal/app"
	"github.com/unkn0wn-root/reqdeck/internal/dispatch"
	"github.com/unkn0wn-root/reqdeck/internal/errdef"
	"github.com/unkn0wn-root/reqdeck/internal/request"
	"github.com/unkn0wn-root/reqdeck/internal/session"
)

// pollFallback bounds the wait between ticks in case a wake-up is missed.
const pollFallback = 250 * time.Millisecond

type sendFlags struct {
	method    string
	headers   []string
	query     []string
	body      string
	bodyFile  string
	include   bool
	noHistory bool
}

func newSendCmd(global *globalFlags) *cobra.Command {
	var f sendFlags
	cmd := &cobra.Command{
		Use:   "send <url>",
		Short: "Send one request and print the response",
		Long: heredoc.Doc(`
			Send runs a single request in a temporary tab and prints the result.

			The URL, header and query values may contain {name} placeholders that
			are resolved from --env-file. The body is sent verbatim. The request
			is added to the shared history unless --no-history is given.
		`),
		Example: heredoc.Doc(`
			reqdeck send https://httpbin.org/get -q page=2
			reqdeck send -X POST https://{host}/users -H "Content-Type: application/json" -d '{"name":"ada"}' --env-file dev.json
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, *global, f, args[0])
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.method, "method", "X", "GET", "HTTP method: GET, POST, PUT, PATCH or DELETE")
	fl.StringArrayVarP(&f.headers, "header", "H", nil, `Header "Name: value" (repeatable)`)
	fl.StringArrayVarP(&f.query, "query", "q", nil, `Query parameter "key=value" appended to the URL (repeatable)`)
	fl.StringVarP(&f.body, "data", "d", "", "Request body")
	fl.StringVar(&f.bodyFile, "data-file", "", "Read the request body from a file")
	fl.BoolVarP(&f.include, "include", "i", false, "Print response headers")
	fl.BoolVar(&f.noHistory, "no-history", false, "Do not record the request or touch saved state")
	return cmd
}

func runSend(cmd *cobra.Command, global globalFlags, f sendFlags, rawURL string) error {
	commands, err := f.commands(rawURL)
	if err != nil {
		return err
	}

	wake := make(chan struct{}, 1)
	rt, err := newRuntime(cmd, global, runtimeOptions{
		ephemeral: f.noHistory,
		dispatch: []dispatch.Option{dispatch.WithNotify(func() {
			select {
			case wake <- struct{}{}:
			default:
			}
		})},
	})
	if err != nil {
		return err
	}
	defer rt.close()

	ctx := contextOf(cmd)
	core, err := app.New(ctx, app.Options{
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

	previous := core.Active()
	if err := core.Apply(app.CreateSession{}); err != nil {
		return err
	}
	tab := core.Active()
	result, sendErr := sendIn(ctx, core, tab, global.envFile, commands, wake)

	// The temporary tab goes away; its history entry stays.
	_ = core.Apply(app.CloseSession{Session: tab})
	_ = core.Apply(app.Activate{Session: previous})
	if err := core.Close(); err != nil {
		printWarning(cmd.ErrOrStderr(), "state not saved: "+errdef.Message(err))
	}
	if sendErr != nil {
		return sendErr
	}
	printResource(cmd.OutOrStdout(), result.Resource, f.include)
	return nil
}

func sendIn(ctx context.Context, core *app.App, tab, envFile string, commands []app.Command, wake <-chan struct{}) (session.Result, error) {
	if envFile != "" {
		commands = append([]app.Command{app.LoadEnvironment{Path: envFile}}, commands...)
	}
	commands = append(commands, app.Dispatch{})
	for _, c := range commands {
		if err := core.Apply(withSession(c, tab)); err != nil {
			return session.Result{}, err
		}
	}
	s, err := waitSettled(ctx, core, tab, wake)
	if err != nil {
		return session.Result{}, err
	}
	if s.Result.Err != "" {
		return s.Result, errdef.New(errdef.CodeHTTP, "%s", s.Result.Err)
	}
	return s.Result, nil
}

// waitSettled ticks the core until tab has no pending dispatch.
func waitSettled(ctx context.Context, core *app.App, tab string, wake <-chan struct{}) (app.SessionFrame, error) {
	timer := time.NewTimer(pollFallback)
	defer timer.Stop()
	for {
		s, ok := core.Tick().Session(tab)
		if !ok {
			return app.SessionFrame{}, errdef.New(errdef.CodeState, "tab %q disappeared", tab)
		}
		if s.Status != session.StatusPending {
			return s, nil
		}
		select {
		case <-ctx.Done():
			return s, ctx.Err()
		case <-wake:
		case <-timer.C:
		}
		timer.Reset(pollFallback)
	}
}

// commands turns flags into edits applied to the temporary tab.
func (f sendFlags) commands(rawURL string) ([]app.Command, error) {
	method, err := request.ParseMethod(f.method)
	if err != nil {
		return nil, err
	}
	body := f.body
	if f.bodyFile != "" {
		if body != "" {
			return nil, errdef.New(errdef.CodeValidation, "use either --data or --data-file")
		}
		data, err := os.ReadFile(f.bodyFile)
		if err != nil {
			return nil, errdef.Wrap(errdef.CodeFilesystem, err, "read %s", f.bodyFile)
		}
		body = string(data)
	}

	out := []app.Command{
		app.SetMethod{Method: method},
		app.SetURL{URL: strings.TrimSpace(rawURL)},
		app.SetBody{Body: body},
	}
	for _, h := range f.headers {
		k, v, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, errdef.New(errdef.CodeValidation, "header %q must look like \"Name: value\"", h)
		}
		out = append(out, app.AddRow{Target: app.Headers, Key: strings.TrimSpace(k), Value: strings.TrimSpace(v)})
	}
	for _, q := range f.query {
		k, v, ok := strings.Cut(q, "=")
		if !ok || k == "" {
			return nil, errdef.New(errdef.CodeValidation, "query %q must look like key=value", q)
		}
		out = append(out, app.AddRow{Target: app.Query, Key: k, Value: v})
	}
	return out, nil
}

func withSession(c app.Command, name string) app.Command {
	switch v := c.(type) {
	case app.SetMethod:
		v.Session = name
		return v
	case app.SetURL:
		v.Session = name
		return v
	case app.SetBody:
		v.Session = name
		return v
	case app.AddRow:
		v.Session = name
		return v
	case app.LoadEnvironment:
		v.Session = name
		return v
	case app.Dispatch:
		v.Session = name
		return v
	}
	return c
}
