package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	railways "github.com/rishitkumar8/Railways"
	"github.com/rishitkumar8/Railways/internal/presentation/tui"
	httpAdapter "github.com/rishitkumar8/Railways/pkg/adapters/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the engine and exposes decide, sync, reroute and the admin endpoints over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			// StringArray.Set appends.
			if err := cmd.Flags().Set("set", "server.addr="+addr); err != nil {
				return err
			}
		}

		streams := httpAdapter.NewStreamManager()
		setup, err := newEngine(cmd, railways.WithHooks(streams.Hooks()), railways.WithMetrics())
		if err != nil {
			return err
		}
		defer setup.close()

		quiet, _ := cmd.Flags().GetBool("quiet")
		if !quiet {
			tui.PrintBanner(os.Stderr, railways.Version)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		setup.engine.Start(ctx)

		srv := &http.Server{
			Addr:              setup.config.Server.Addr,
			Handler:           httpAdapter.NewHandler(setup.engine, httpAdapter.WithStreams(streams)),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			setup.logger.Info("Starting Railways Server", "addr", srv.Addr, "version", railways.Version)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			setup.logger.Info("Start shutdown")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				setup.logger.Error("Graceful shutdown did not complete", "timeout", 5*time.Second, "error", err)
				if err := srv.Close(); err != nil {
					setup.logger.Error("Error killing server", "error", err)
				}
			}
			setup.logger.Info("Railways Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides server.addr)")
	serveCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}
