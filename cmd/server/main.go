package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/roomcast/roomcast/internal/relay"
)

func main() {
	// Load local .env (dev only); absence is fine.
	_ = godotenv.Load()

	if os.Getenv("APP_ENV") == "prod" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetLevel(logrus.DebugLevel)
	}

	logrus.Info("Starting Roomcast relay...")

	cfg := relay.NewConfigFromEnv()
	relay.SetConfig(cfg)

	registry := relay.NewRegistry()
	hub := relay.NewHub(registry)
	go hub.Run()

	mux := relay.SetupRoutes(hub)
	httpServer := relay.CreateServer(cfg.Port, mux)

	go func() {
		if err := relay.StartServer(httpServer); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutdown signal received")

	if err := relay.ShutdownServer(httpServer, 10*time.Second); err != nil {
		logrus.WithError(err).Warn("HTTP server did not shut down cleanly")
	}
	if err := hub.Shutdown(5 * time.Second); err != nil {
		logrus.WithError(err).Warn("Hub did not shut down cleanly")
	}

	logrus.Info("Shutdown complete")
}
