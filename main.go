package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	db, err := OpenDB(cfg.Server.DBPath)
	if err != nil {
		logger.Fatalw("open database", "error", err, "path", cfg.Server.DBPath)
	}
	defer db.Close()

	auth, err := NewAuth(db)
	if err != nil {
		logger.Fatalw("init auth", "error", err)
	}

	analytics := NewAnalytics(db, logger)
	defer analytics.Close()

	debris := NewDebrisFetcher(cfg.Debris, logger)
	logger.Infow("debris catalog ready", "objects", debris.Count())

	deps := GameDeps{
		Log:       logger,
		DB:        db,
		Analytics: analytics,
		Debris:    debris,
		Secret:    auth.Secret(),
	}
	sessions := NewSessionManager(cfg, deps)
	defer sessions.Close()

	hub := NewHub(logger, sessions, auth, db)

	mux := http.NewServeMux()
	SetupRoutes(mux, hub, cfg.Server)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // websocket writes manage their own deadlines
	}

	go func() {
		logger.Infow("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorw("shutdown", "error", err)
	}
}
