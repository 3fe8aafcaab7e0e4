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
	"golang.org/x/sync/errgroup"

	"salesdash/internal/api"
	"salesdash/internal/dashboard"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API; the dataset loads in the background",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	// 1. Initialize Echo with no data
	// The API is "live" but data endpoints answer 503 until the load finishes
	h := api.NewHandler(dashboard.New(nil), nil)
	e := api.NewServer(h, cfg.Server, logger)

	g, gctx := errgroup.WithContext(ctx)

	// 2. Load the dataset in the background
	g.Go(func() error {
		logger.Info().Str("source", cfg.Data.Source).Msg("BACKGROUND: loading dataset")
		t0 := time.Now()

		t, err := newLoader(cfg).Load(gctx)
		if err != nil {
			return fmt.Errorf("failed to load dataset: %w", err)
		}
		h.SetData(t)

		logger.Info().Dur("took", time.Since(t0)).Msg("BACKGROUND: dataset ready, API is fully live")
		return nil
	})

	// 3. Start server
	g.Go(func() error {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("server ready (data loading in background)")
		if err := e.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// 4. Shut down on signal or failed load
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info().Msg("shutting down")
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
