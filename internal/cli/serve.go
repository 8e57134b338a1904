package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/roach88/feedline/internal/api"
	"github.com/roach88/feedline/internal/engine"
	"github.com/roach88/feedline/internal/ledger"
	"github.com/roach88/feedline/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Database string
	Addr     string

	// ready, when set, receives the bound address once the listener is up.
	ready func(addr string)
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the timelines over HTTP",
		Long: `Restore the engine from the journal and serve it over HTTP: timeline
reads, event dispatch, ledger writes, a websocket change stream and
Prometheus metrics.

Example:
  feedline serve --db ./feedline.db --addr 127.0.0.1:7411`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default: store.path from config)")
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default: server.addr from config)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := opts.Config(cmd)
	if err != nil {
		return err
	}
	addr := opts.Addr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	st, err := openStore(opts.Database, cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx, cancel := signalContext(cmd)
	defer cancel()

	mem, err := ledger.LoadMemory(ctx, st)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load ledger", err)
	}

	engineOpts := []engine.Option{engine.WithLedger(mem)}
	serverOpts := []api.Option{api.WithStore(st), api.WithLogger(slog.Default())}
	if cfg.Server.Metrics {
		col := metrics.New(true)
		engineOpts = append(engineOpts, engine.WithMetrics(col))
		serverOpts = append(serverOpts, api.WithMetrics(col))
	}

	eng, err := engine.Open(ctx, st, cfg.TimelineLimits(), engineOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to restore engine", err)
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Handler:           api.NewServer(eng, mem, serverOpts...).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}

	engineDone := make(chan error, 1)
	go func() { engineDone <- eng.Run(ctx) }()

	serveDone := make(chan error, 1)
	go func() { serveDone <- srv.Serve(ln) }()

	slog.Info("serving", "addr", ln.Addr().String(), "metrics", cfg.Server.Metrics)
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", ln.Addr())
	if opts.ready != nil {
		opts.ready(ln.Addr().String())
	}

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-serveDone:
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown", "error", err)
	}

	eng.Stop()
	if err := <-engineDone; err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("engine stopped with error", "error", err)
	}

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return WrapExitError(ExitFailure, "http server error", serveErr)
	}
	slog.Info("server stopped gracefully")
	return nil
}
