package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-seat-ticketing/internal/config"
	"github.com/iliyamo/event-seat-ticketing/internal/database"
	"github.com/iliyamo/event-seat-ticketing/internal/handler"
	"github.com/iliyamo/event-seat-ticketing/internal/middleware"
	"github.com/iliyamo/event-seat-ticketing/internal/queue"
	"github.com/iliyamo/event-seat-ticketing/internal/repository"
	"github.com/iliyamo/event-seat-ticketing/internal/router"
	"github.com/iliyamo/event-seat-ticketing/internal/scheduler"
	"github.com/iliyamo/event-seat-ticketing/internal/service"
	"github.com/iliyamo/event-seat-ticketing/internal/utils"
)

func main() {
	cfg := config.Load()
	config.SetupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBOptions())
	if err != nil {
		logrus.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()
	if cfg.DBAutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logrus.WithError(err).Fatal("migration failed")
		}
		logrus.Info("schema applied")
	}

	var opts []service.Option
	if cfg.EventsEnabled {
		opts = append(opts, service.WithPublisher(queue.NewPublisher(cfg.RabbitMQURL)))
	}
	svc := service.New(
		repository.NewStore(db),
		clockwork.NewRealClock(),
		utils.NewTicketCoder(cfg.TicketSigningKey),
		cfg.Service(),
		opts...,
	)

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	sched, err := scheduler.StartSweeper(ctx, svc.Sweeper, cfg.SweepInterval, clockwork.NewRealClock(), rdb)
	if err != nil {
		logrus.WithError(err).Fatal("scheduler start failed")
	}

	if cfg.EventsEnabled && cfg.EventsConsumerEnabled {
		go func() {
			if err := queue.StartEventConsumer(ctx, cfg.RabbitMQURL, cfg.EventsLogDir); err != nil && !errors.Is(err, context.Canceled) {
				logrus.WithError(err).Error("event consumer stopped")
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())

	router.Register(e, router.Deps{
		JWTSecret: cfg.JWTSecret,
		Redis:     rdb,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		Health:    &handler.HealthHandler{DB: db, Redis: rdb},
		Seats:     handler.NewSeatHandler(svc),
		Orders:    handler.NewOrderHandler(svc),
		Tickets:   handler.NewTicketHandler(svc),
		Gate:      handler.NewGateHandler(svc),
	})

	addr := ":" + cfg.Port
	go func() {
		logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "db": cfg.DBDriver}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("http shutdown")
	}
	if err := sched.Shutdown(); err != nil {
		logrus.WithError(err).Error("scheduler shutdown")
	}
}
