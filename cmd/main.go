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

	"github.com/RoyceAzure/lab/pizzabot/internal/api/router"
	"github.com/RoyceAzure/lab/pizzabot/internal/appcontext"
	"github.com/RoyceAzure/lab/pizzabot/internal/config"
	"github.com/RoyceAzure/lab/pizzabot/internal/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"
)

const (
	pollTimeout     = 30
	shutdownTimeout = 30 * time.Second
)

func main() {
	cf := config.GetConfig()
	log := logger.New(cf.LogLevel, os.Stdout)
	if err := cf.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	// 設置訊號監聽
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := appcontext.NewApplicationContext(ctx, cf, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init application")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cf.ServerPort),
		Handler:           router.SetupRouter(app.Server, app.APILimiter, &log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = pollTimeout
		updates := app.BotAPI.GetUpdatesChan(u)
		go func() {
			<-gctx.Done()
			app.BotAPI.StopReceivingUpdates()
		}()
		return app.Bot.Run(gctx, updates)
	})

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("received shutdown signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	runErr := g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("application shutdown error")
	}

	if runErr != nil {
		log.Error().Err(runErr).Msg("stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("closed completed")
}
