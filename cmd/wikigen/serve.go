package main

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"wikigen/app/internal/app/bootstrap"
	"wikigen/app/internal/config"
	applog "wikigen/app/internal/log"
)

func runServe(ctx context.Context) error {
	cfg, settings, err := loadConfiguration()
	if err != nil {
		return err
	}

	logger, err := applog.NewLogger(cfg.LogLevel, settings.LogFormat())
	if err != nil {
		return eris.Wrap(err, "failure initialising logger")
	}

	sentryHub, flush, err := applog.InitSentry(logger, applog.SentrySettings{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
	})
	if err != nil {
		return eris.Wrap(err, "failure initialising sentry")
	}
	defer flush()

	app, err := bootstrap.Build(ctx, bootstrap.Dependencies{
		Config:    cfg,
		Settings:  settings,
		Logger:    logger,
		SentryHub: sentryHub,
	})
	if err != nil {
		return eris.Wrap(err, "failure building application")
	}
	defer func() {
		if closeErr := app.Cleanup(); closeErr != nil {
			logger.WithError(closeErr).Error("closing application resources")
		}
	}()

	httpServer := &stdhttp.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.ServerPort),
		Handler: app.HTTPServer.Handler(),
	}

	logger.WithFields(logrus.Fields{
		"addr":     httpServer.Addr,
		"backend":  cfg.WikiBackend,
		"provider": cfg.LLMProvider,
	}).Info("starting http server")

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return eris.Wrap(err, "http server error")
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return eris.Wrap(err, "shutting down http server")
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		return err
	}

	logger.Info("http server shut down cleanly")
	return nil
}

// loadConfiguration reads the settings file and the environment, failing on the first invalid source.
func loadConfiguration() (*config.Config, *config.Settings, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, eris.Wrap(err, "failure loading configuration")
	}

	settings, err := config.LoadSettings(cfg.ConfigFile)
	if err != nil {
		return nil, nil, eris.Wrap(err, "failure loading settings file")
	}

	if err := cfg.CheckEnvironment(); err != nil {
		return nil, nil, eris.Wrap(err, "failure checking environment")
	}

	return cfg, settings, nil
}
