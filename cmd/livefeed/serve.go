package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"livefeed/internal/feed"
	"livefeed/internal/httpapi"
)

func newServeCmd(o *options) *cobra.Command {
	var addr, corsOrigins string
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the bridge HTTP API",
		Example: "  livefeed serve --config livefeed.yaml\n  LIVEFEED_ENDPOINT=http://panel:9999/api/v2/process/ws livefeed serve --addr :8090",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				o.cfg.Addr = addr
			}
			if o.cfg.Addr == "" {
				o.cfg.Addr = defaultAddr
			}
			if corsOrigins != "" {
				o.cfg.CORSEnabled = true
				o.cfg.CORSOrigins = splitCSV(corsOrigins)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, o)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "HTTP listen address (defaults LIVEFEED_ADDR or :8090)")
	cmd.Flags().StringVar(&corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins; enables CORS")
	return cmd
}

func runServe(ctx context.Context, o *options) error {
	d, err := o.dialer()
	if err != nil {
		return err
	}
	pool := feed.NewPool(o.managerConfig(d))
	defer pool.Close()

	httpapi.SetLogger(o.log)
	httpapi.SetCORSOptions(o.cfg.CORSEnabled, o.cfg.CORSOrigins, nil, nil)
	httpapi.SetBaseContext(ctx)

	srv := &http.Server{
		Addr:              o.cfg.Addr,
		Handler:           httpapi.NewMux(pool),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		o.log.Info().Str("addr", o.cfg.Addr).Str("endpoint", o.cfg.Endpoint).Msg("livefeed listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	// Graceful shutdown (Ctrl+C / SIGTERM)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		o.log.Warn().Err(err).Msg("graceful shutdown error")
	}
	o.log.Info().Msg("livefeed stopped")
	return nil
}
