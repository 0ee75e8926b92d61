package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"abverdict/internal"
	"abverdict/internal/config"
	"abverdict/internal/container"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const shutdownGrace = 15 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))

	c, err := container.New(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}

	gin.SetMode(cfg.Server.GinMode)
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           c.APIServer().Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// pprof registers on the default mux, served on its own port
	if cfg.Profiling.Enabled {
		go func() {
			logger.Info("profiling server listening on :%s", cfg.Profiling.Port)
			if err := http.ListenAndServe(":"+cfg.Profiling.Port, nil); err != nil {
				logger.Warn("pprof server stopped: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("abverdict API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed: %v", err)
	}
	if err := c.Shutdown(shutdownCtx); err != nil {
		logger.Warn("container shutdown: %v", err)
	}
}
