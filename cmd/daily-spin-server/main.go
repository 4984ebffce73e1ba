package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/sfmarket/daily-spin/internal/api"
	"github.com/sfmarket/daily-spin/internal/api/middleware"
	"github.com/sfmarket/daily-spin/internal/auth"
	"github.com/sfmarket/daily-spin/internal/repository"
	"github.com/sfmarket/daily-spin/internal/service"
	"github.com/sfmarket/daily-spin/pkg/db"
)

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log := zlog.With().Str("service", "daily-spin").Logger()

	cfg := db.LoadPostgresConfig()
	conn, err := db.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer conn.Close()

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal().Err(err).Msg("schema")
	}

	svc := service.NewCouponService(repository.NewCouponRepo(conn))

	creds := auth.Credentials{
		Username: os.Getenv("ADMIN_USERNAME"),
		Password: os.Getenv("ADMIN_PASSWORD"),
	}
	sessionTTL := time.Hour
	if raw := os.Getenv("ADMIN_SESSION_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			sessionTTL = d
		} else {
			log.Warn().Str("value", raw).Msg("invalid ADMIN_SESSION_TTL, using default")
		}
	}
	tokens := auth.NewTokenService(os.Getenv("ADMIN_TOKEN_SECRET"), sessionTTL)

	handler := api.NewRouter(svc, creds, tokens, log)

	r := chi.NewRouter()
	r.Use(middleware.Logger(log))
	r.Mount("/", handler)

	addr := ":8080"
	if p := os.Getenv("PORT"); p != "" {
		addr = ":" + p
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// graceful shutdown
	idleConnsClosed := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown")
		}
		close(idleConnsClosed)
	}()

	log.Info().Str("addr", addr).Msg("starting daily-spin server")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("listen")
	}

	<-idleConnsClosed
	log.Info().Msg("server stopped")
}
