package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"erpsheets/internal/api"
	"erpsheets/internal/logger"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the summaries, overviews, reports and notes over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.WithComponent("serve")
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		b, err := openBackend(ctx)
		if err != nil {
			return err
		}
		defer b.close()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = b.cfg.HTTPAddr
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           api.NewHandler(b.pipeline).Router(b.cfg.CORSOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Str("addr", addr).Str("backend", b.cfg.DataBackend).Msg("HTTP server listening")
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

		log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default: HTTP_ADDR)")
}
