package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/assignment"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/conflict"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/generator"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/holiday"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/repository"
	"gopkg.in/yaml.v3"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "shiftctl",
	Short: "Operate the guard roster from the command line",
	Long: `shiftctl runs the shift generator and team assignment engine against the
configured database without going through the HTTP API.

Configuration is read from the same environment variables as the API server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "json", "result format (json or yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(migrateCmd, generateCmd, assignTeamCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds the connections shared by every subcommand.
type app struct {
	cfg    *config.Config
	loc    *time.Location
	logger *slog.Logger
	db     *sql.DB
	rdb    *redis.Client
	repo   *repository.Repository
}

func newApp(ctx context.Context) (*app, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid scheduling timezone: %w", err)
	}

	db, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	pingCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return &app{
		cfg:    cfg,
		loc:    loc,
		logger: logger,
		db:     db,
		repo:   repository.NewRepository(cfg, db, loc),
	}, nil
}

func (a *app) Close() {
	if a.rdb != nil {
		a.rdb.Close()
	}
	a.db.Close()
}

func (a *app) calendar() *holiday.Calendar {
	a.rdb = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", a.cfg.Redis.Host, a.cfg.Redis.Port),
		Password: a.cfg.Redis.Password,
		DB:       0,
	})
	return holiday.NewCalendar(
		a.repo,
		holiday.NewRedisCache(a.rdb, time.Duration(a.cfg.Redis.HolidayCacheTTL)*time.Second),
		time.Duration(a.cfg.Scheduling.HolidayLookupTimeout)*time.Second,
		a.logger,
	)
}

func (a *app) orchestrator() *assignment.Orchestrator {
	return assignment.NewOrchestrator(
		a.repo,
		conflict.NewConsecutiveChecker(a.repo, a.loc, a.logger),
		conflict.NewCrossContractChecker(a.repo, a.loc, time.Duration(a.cfg.Scheduling.ConflictCheckTimeout)*time.Second, a.logger),
		assignment.Options{
			Location:       a.loc,
			MaxRangeDays:   a.cfg.Scheduling.MaxHorizonDays,
			VersionRetries: a.cfg.Scheduling.VersionRetries,
		},
		a.logger,
	)
}

func (a *app) generator() *generator.Generator {
	return generator.New(a.repo, a.calendar(), generator.Options{
		Location:          a.loc,
		BatchSize:         a.cfg.Scheduling.InsertBatchSize,
		MaxHorizonDays:    a.cfg.Scheduling.MaxHorizonDays,
		OvertimeThreshold: time.Duration(a.cfg.Scheduling.OvertimeThreshold) * time.Hour,
	}, a.logger)
}

func (a *app) parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, s, a.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

func printResult(w io.Writer, v any) error {
	switch outputFormat {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}
}
