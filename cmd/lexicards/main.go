package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/avelichko/lexicards/config"
	"github.com/avelichko/lexicards/internal/api"
	"github.com/avelichko/lexicards/internal/stores"
	"github.com/avelichko/lexicards/internal/study"
)

const GracefulShutdownTimeout = 10 * time.Second

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		panic(err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Info().Str("log-level", level.String()).Msg("started-with-config")

	if cfg.SecretKey == "" {
		log.Fatal().Msg("secret-key must be set")
	}
	if cfg.DBConnUri == "" {
		log.Fatal().Msg("db-conn-uri must be set")
	}

	ctx := context.Background()
	dbPool, err := pgxpool.New(ctx, cfg.DBConnUri)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create db pool")
	}
	defer dbPool.Close()
	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("could not connect to db")
	}

	m, err := migrate.New(cfg.DBMigrationsPath, cfg.DBConnUri)
	if err != nil {
		log.Fatal().Err(err).Msg("could not init migrations")
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal().Err(err).Msg("could not run migrations")
	}
	m.Close()
	log.Info().Msg("migrations-up-to-date")

	store := stores.NewStore(dbPool)
	studyServer := study.NewServer(cfg, study.NewSQLStore(store))
	apiService := api.NewService(cfg, store, studyServer)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(requestLogger())
	apiService.Register(e)

	idleConnsClosed := make(chan struct{})
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		// We received an interrupt signal, shut down.
		log.Info().Msg("got quit signal...")
		ctx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
		if err := e.Shutdown(ctx); err != nil {
			log.Error().Msgf("server shutdown: %v", err)
		}
		cancel()
		close(idleConnsClosed)
	}()

	if err := e.Start(cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("")
	}
	<-idleConnsClosed
	log.Info().Msg("server gracefully shutting down")
}

// requestLogger writes one structured line per request and stamps the
// request context with the logger so handlers can use log.Ctx.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			c.SetRequest(req.WithContext(log.Logger.WithContext(req.Context())))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Msg("request-handled")
			return err
		}
	}
}
