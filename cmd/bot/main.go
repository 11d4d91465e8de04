package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diegoclair/slack-auto-away/internal/app"
	"github.com/diegoclair/slack-auto-away/internal/config"
	"github.com/diegoclair/slack-auto-away/internal/handlers"
	"github.com/diegoclair/slack-auto-away/internal/logger"
	"github.com/diegoclair/slack-auto-away/internal/scheduler"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const serviceName = "auto-away-bot"

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}

	log, err := logger.New(serviceName, logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create logger")
	}
	if envErr != nil {
		log.Warn(".env file not found")
	}
	for _, warning := range cfg.Warnings() {
		log.Warn(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log, nil)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize app")
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.WithError(err).Error("Failed to close app")
		}
	}()

	sched := scheduler.New(a.Services.Scheduler, log, cfg.TickInterval)
	sched.Start(ctx)
	defer sched.Stop()

	handler := handlers.New(a.Services.Account, log, handlers.Config{
		SigningSecret: cfg.SlackSigningSecret,
		ClientID:      cfg.SlackClientID,
		RedirectURL:   cfg.SlackRedirectURL,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Failed to shut down server")
		}
	}()

	log.WithField("port", cfg.Port).Info("Server starting")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("Server failed")
		return
	}
	log.Info("Server stopped")
}
