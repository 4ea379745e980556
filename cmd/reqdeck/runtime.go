package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/reqdeck/internal/config"
	"github.com/unkn0wn-root/reqdeck/internal/dispatch"
	"github.com/unkn0wn-root/reqdeck/internal/errdef"
	"github.com/unkn0wn-root/reqdeck/internal/history"
	"github.com/unkn0wn-root/reqdeck/internal/httpclient"
	"github.com/unkn0wn-root/reqdeck/internal/logging"
	"github.com/unkn0wn-root/reqdeck/internal/resource"
	"github.com/unkn0wn-root/reqdeck/internal/state"
	"github.com/unkn0wn-root/reqdeck/internal/telemetry"
	"github.com/unkn0wn-root/reqdeck/internal/watcher"
)

const telemetryShutdownTimeout = 5 * time.Second

type globalFlags struct {
	timeout      time.Duration
	insecure     bool
	proxy        string
	noFollow     bool
	stateBackend string
	envFile      string
	verbose      bool
}

func (f *globalFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.DurationVar(&f.timeout, "timeout", 0, "Request timeout (overrides http.timeout)")
	pf.BoolVar(&f.insecure, "insecure", false, "Skip TLS certificate verification")
	pf.StringVar(&f.proxy, "proxy", "", "HTTP proxy URL")
	pf.BoolVar(&f.noFollow, "no-follow", false, "Do not follow redirects")
	pf.StringVar(&f.stateBackend, "state-backend", "", "State storage: json or sqlite")
	pf.StringVar(&f.envFile, "env-file", "", "Environment file loaded into the active tab")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "Also log to stderr")
}

// applyTo folds explicitly set flags over the loaded settings.
func (f globalFlags) applyTo(cmd *cobra.Command, s config.Settings) (config.Settings, error) {
	changed := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}
	if changed("timeout") {
		s.HTTP.Timeout = config.Duration(f.timeout)
	}
	if changed("insecure") {
		s.HTTP.Insecure = f.insecure
	}
	if changed("proxy") {
		s.HTTP.Proxy = strings.TrimSpace(f.proxy)
	}
	if changed("no-follow") {
		s.HTTP.FollowRedirects = !f.noFollow
	}
	if changed("state-backend") {
		backend := strings.ToLower(strings.TrimSpace(f.stateBackend))
		if backend != config.StateBackendJSON && backend != config.StateBackendSQLite {
			return s, errdef.New(errdef.CodeValidation, "unknown state backend %q", f.stateBackend)
		}
		s.State.Backend = backend
	}
	return s, nil
}

type runtimeOptions struct {
	// watch enables environment auto reload when settings allow it.
	watch bool
	// ephemeral skips the state backend entirely.
	ephemeral bool
	dispatch  []dispatch.Option
}

// runtime holds the process-wide collaborators shared by every command.
type runtime struct {
	settings   config.Settings
	logger     zerolog.Logger
	dispatcher *dispatch.Dispatcher
	backend    state.Backend
	watcher    *watcher.Watcher

	closers []func() error
}

func newRuntime(cmd *cobra.Command, flags globalFlags, opts runtimeOptions) (*runtime, error) {
	settings, _, settingsErr := config.LoadSettings()
	if settingsErr != nil {
		settings = config.DefaultSettings()
	}
	settings, err := flags.applyTo(cmd, settings)
	if err != nil {
		return nil, err
	}
	settings = settings.Normalise()

	rt := &runtime{settings: settings}
	logger, logCloser, err := logging.New(logging.Options{
		Path:    config.LogPath(),
		Level:   settings.LogLevel,
		Console: flags.verbose,
	})
	if err != nil {
		printWarning(cmd.ErrOrStderr(), "logging disabled: "+err.Error())
	}
	rt.logger = logger
	rt.closers = append(rt.closers, logCloser.Close)
	if settingsErr != nil {
		rt.logger.Warn().Err(settingsErr).Msg("settings load failed, using defaults")
		printWarning(cmd.ErrOrStderr(), "settings: "+settingsErr.Error())
	}

	client := httpclient.NewClient()
	rt.closers = append(rt.closers, func() error {
		client.CloseIdleConnections()
		return nil
	})
	rt.installTelemetry(client)

	dispatchOpts := []dispatch.Option{
		dispatch.WithHTTPOptions(httpOptions(settings.HTTP)),
		dispatch.WithResourceOptions(resource.Options{
			Highlight: settings.Highlight.Enabled,
			Style:     settings.Highlight.Style,
			Formatter: resource.FormatterFor(termenv.EnvColorProfile()),
		}),
		dispatch.WithLogger(rt.logger),
	}
	rt.dispatcher = dispatch.New(client, history.NewLog(), append(dispatchOpts, opts.dispatch...)...)

	if !opts.ephemeral {
		backend, err := openBackend(settings.State.Backend)
		if err != nil {
			rt.close()
			return nil, err
		}
		rt.backend = backend
	}
	if opts.watch && settings.Environment.Watch {
		rt.watcher = watcher.New(watcher.Options{})
		rt.watcher.Start()
	}
	return rt, nil
}

func (rt *runtime) installTelemetry(client *httpclient.Client) {
	cfg := telemetry.ConfigFromEnv(os.Getenv)
	cfg.Version = version
	if !cfg.Enabled() {
		return
	}
	provider, err := telemetry.New(cfg)
	if err != nil {
		rt.logger.Error().Err(err).Msg("telemetry init failed")
		return
	}
	client.SetTelemetry(provider)
	rt.closers = append(rt.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		return provider.Shutdown(ctx)
	})
}

// close releases collaborators in reverse order. The backend and watcher
// are closed by app.App when one was built on top of them.
func (rt *runtime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.logger.Warn().Err(err).Msg("shutdown")
		}
	}
	rt.closers = nil
}

func httpOptions(s config.HTTPSettings) httpclient.Options {
	return httpclient.Options{
		Timeout:            s.Timeout.Std(),
		FollowRedirects:    s.FollowRedirects,
		InsecureSkipVerify: s.Insecure,
		ProxyURL:           s.Proxy,
		HTTP2:              s.HTTP2,
		MaxBodyBytes:       s.MaxBodyBytes,
	}
}

func openBackend(kind string) (state.Backend, error) {
	switch kind {
	case config.StateBackendSQLite:
		return state.OpenSQLite(config.DBPath())
	case config.StateBackendJSON, "":
		return state.NewFileBackend(config.StatePath()), nil
	default:
		return nil, errdef.New(errdef.CodeValidation, "unknown state backend %q", kind)
	}
}
