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

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/aulabook/seminar-reservation/internal/config"
	"github.com/aulabook/seminar-reservation/internal/database"
	"github.com/aulabook/seminar-reservation/internal/handler"
	"github.com/aulabook/seminar-reservation/internal/logging"
	"github.com/aulabook/seminar-reservation/internal/repository"
	"github.com/aulabook/seminar-reservation/internal/router"
	"github.com/aulabook/seminar-reservation/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load() // .env is optional outside development

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, "seminar-api")
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.Options{
		User:     cfg.DBUser,
		Password: cfg.DBPass,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		Name:     cfg.DBName,
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	rdb, err := config.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, cache and rate limit disabled", zap.Error(err))
		rdb = nil
	} else {
		defer rdb.Close()
	}

	var pub service.Publisher = service.NopPublisher{}
	if cfg.Broker.URL != "" {
		pub = service.NewAMQPPublisher(cfg.Broker.URL, log)
	} else {
		log.Info("RABBITMQ_URL not set, booking events are dropped")
	}

	departments := repository.NewDepartmentRepo(db)
	rooms := repository.NewRoomRepo(db)
	seminars := repository.NewSeminarRepo(db)
	showtimes := repository.NewShowtimeRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	booking := service.NewBookingService(showtimes, pub, log)
	scheduling := service.NewShowtimeService(showtimes, seminars, rooms, log)

	e := router.New(router.Handlers{
		Health:      handler.NewHealthHandler(db, rdb),
		Auth:        handler.NewAuthHandler(cfg, users, tokens, log),
		Departments: handler.NewDepartmentHandler(departments, log),
		Rooms:       handler.NewRoomHandler(rooms, log),
		Seminars:    handler.NewSeminarHandler(seminars, log),
		Showtimes:   handler.NewShowtimeHandler(showtimes, scheduling, booking, users, log),
	}, router.Options{
		JWTSecret: cfg.JWTSecret,
		Cache:     cfg.Cache,
		RateLimit: cfg.RateLimit,
		Redis:     rdb,
		Log:       log,
	})

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
