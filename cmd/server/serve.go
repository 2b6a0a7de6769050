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
	"go.uber.org/zap"

	"github.com/folio-space/core/internal/app"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := app.New(logger, cfg)
		if err != nil {
			return fmt.Errorf("initialize app: %w", err)
		}

		srv := &http.Server{
			Addr:              application.Addr(),
			Handler:           application.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("server starting", zap.String("addr", srv.Addr))
			logger.Info("admin login", zap.String("url", "http://localhost"+srv.Addr+cfg.Server.AdminLoginPath))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
		case err := <-errCh:
			application.Shutdown()
			return fmt.Errorf("server error: %w", err)
		}

		logger.Info("shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("forced shutdown", zap.Error(err))
		}
		application.Shutdown()
		logger.Info("server exited")
		return nil
	},
}
