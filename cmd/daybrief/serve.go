package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hoanghai1803/daybrief/internal/api"
	"github.com/hoanghai1803/daybrief/internal/schedule"
)

var (
	serveAddr   string
	noScheduler bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and run schedules as they come due",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default localhost:<server.port>)")
	serveCmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "do not poll for due schedules")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	// Runs dispatched by the poller finish before storage closes.
	defer a.engine.Wait()

	router := api.NewRouter(api.Deps{
		Store:     a.store,
		Runner:    a.runner,
		Tracker:   a.tracker,
		Engine:    a.engine,
		Fallback:  a.fallback,
		Providers: providerNames(),
	})

	addr := serveAddr
	if addr == "" {
		addr = fmt.Sprintf("localhost:%d", cfg.Server.Port)
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if !noScheduler {
		poller := schedule.NewPoller(a.engine, cfg.PollInterval())
		poller.Start(ctx)
		defer poller.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", "http://"+addr, "timezone", a.engine.Location().String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}
