package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"shipscore/server"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analyze, gallery, report, badge and sitemap endpoints.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p, err := newPipeline(ctx, cfg, logger, true)
		if err != nil {
			return err
		}
		defer p.Close()

		srv := server.New(cfg.HTTPAddr, p.analyzer, p.store, logger)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("[server] shutting down, waiting up to %s for open requests", shutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		// p.Close drains the gallery saves started by the last requests
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	_ = v.BindPFlag("http_addr", serveCmd.Flags().Lookup("addr"))
}
