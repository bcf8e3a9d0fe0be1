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

	"github.com/kiwari-pos/terminal/internal/bills"
	"github.com/kiwari-pos/terminal/internal/catalog"
	"github.com/kiwari-pos/terminal/internal/config"
	"github.com/kiwari-pos/terminal/internal/rates"
	"github.com/kiwari-pos/terminal/internal/router"
	"github.com/kiwari-pos/terminal/internal/service"
	"github.com/kiwari-pos/terminal/internal/ws"
	"github.com/rs/zerolog"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "json" {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		var err error
		cat, err = catalog.Load(cfg.CatalogFile)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		logger.Info().Str("file", cfg.CatalogFile).Msg("catalog loaded")
	}

	book := bills.Seeded()
	converter := rates.NewConverter(rates.NewHTTPProvider(cfg.Rates.URL, cfg.Rates.Timeout), cfg.Rates.Fallback)
	converter.Refresh(logger.WithContext(ctx))

	orders := service.NewOrderService(cat, book)
	payments := service.NewPaymentService(book, converter, cfg.Payment)

	hub := ws.NewHub()
	go hub.Run(ctx)
	defer router.PublishEvents(logger, hub, orders, book)()

	srv := &http.Server{
		Addr: fmt.Sprintf(":%s", cfg.Port),
		Handler: router.New(cfg, logger, router.Deps{
			Catalog:  cat,
			Book:     book,
			Orders:   orders,
			Payments: payments,
			Hub:      hub,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Int("menu_items", len(cat.Items())).Msg("starting server")
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

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
