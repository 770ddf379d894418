package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/assignment"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/conflict"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/events"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/generator"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/handler"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/holiday"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/repository"
	"golang.org/x/sync/errgroup"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * config
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Error("invalid scheduling timezone", "timezone", cfg.Scheduling.Timezone, "error", err)
		return
	}

	/**********************************************
	 * database
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open does not connect, so ping explicitly
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool, loc)

	/**********************************************
	 * rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("failed to open channel", "error", err)
		return
	}
	defer ch.Close()

	if err := events.DeclareTopology(ch, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.NotifyQueue); err != nil {
		logger.Error("failed to declare exchange and queue", "error", err)
		return
	}

	/**********************************************
	 * redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer rdb.Close()

	/**********************************************
	 * engines
	 **********************************************/
	calendar := holiday.NewCalendar(
		repo,
		holiday.NewRedisCache(rdb, time.Duration(cfg.Redis.HolidayCacheTTL)*time.Second),
		time.Duration(cfg.Scheduling.HolidayLookupTimeout)*time.Second,
		logger,
	)

	gen := generator.New(repo, calendar, generator.Options{
		Location:          loc,
		BatchSize:         cfg.Scheduling.InsertBatchSize,
		MaxHorizonDays:    cfg.Scheduling.MaxHorizonDays,
		OvertimeThreshold: time.Duration(cfg.Scheduling.OvertimeThreshold) * time.Hour,
	}, logger)

	orchestrator := assignment.NewOrchestrator(
		repo,
		conflict.NewConsecutiveChecker(repo, loc, logger),
		conflict.NewCrossContractChecker(repo, loc, time.Duration(cfg.Scheduling.ConflictCheckTimeout)*time.Second, logger),
		assignment.Options{
			Location:       loc,
			MaxRangeDays:   cfg.Scheduling.MaxHorizonDays,
			VersionRetries: cfg.Scheduling.VersionRetries,
		},
		logger,
	)
	gen.SetHook(assignment.NewAutoAssignBridge(orchestrator, loc, logger))

	relay := events.NewRelay(
		repo,
		events.NewAMQPPublisher(ch, cfg.RabbitMQ.Exchange, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second),
		events.RelayOptions{
			PollInterval: time.Duration(cfg.Outbox.PollInterval) * time.Second,
			BatchSize:    cfg.Outbox.BatchSize,
			MaxAttempts:  cfg.Outbox.MaxAttempts,
		},
		logger,
	)

	/**********************************************
	 * handler
	 **********************************************/
	h, err := handler.NewHandler(cfg, gen, orchestrator)
	if err != nil {
		logger.Error("failed to create handler", "error", err)
		return
	}
	h.RegisterRoutes()

	/**********************************************
	 * HTTP server and outbox relay
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      h.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		logger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return relay.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", "error", err)
		return
	}
	logger.Info("server stopped")
}
