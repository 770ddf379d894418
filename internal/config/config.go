package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"60"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`

		// origins of the manager console
		AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"30"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	JWT struct {
		Secret     string `env:"SECRET,required"`
		CookieName string `env:"COOKIE_NAME" envDefault:"__guard_roster_token"`
	} `envPrefix:"JWT_"`
	Email struct {
		SMTP struct {
			Username    string `env:"USERNAME"`
			Password    string `env:"PASSWORD"`
			Host        string `env:"HOST"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		Exchange       string `env:"EXCHANGE" envDefault:"shift_events"`
		NotifyQueue    string `env:"NOTIFY_QUEUE" envDefault:"shift_assignment_notifications"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host            string `env:"HOST" envDefault:"localhost"`
		Port            int    `env:"PORT" envDefault:"6379"`
		Password        string `env:"PASSWORD"`
		ConnectTimeout  int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		HolidayCacheTTL int    `env:"HOLIDAY_CACHE_TTL" envDefault:"86400"`
	} `envPrefix:"REDIS_"`
	Scheduling struct {
		Timezone             string `env:"TIMEZONE" envDefault:"Asia/Ho_Chi_Minh"`
		InsertBatchSize      int    `env:"INSERT_BATCH_SIZE" envDefault:"200"`
		MaxHorizonDays       int    `env:"MAX_HORIZON_DAYS" envDefault:"92"`
		HolidayLookupTimeout int    `env:"HOLIDAY_LOOKUP_TIMEOUT" envDefault:"5"`
		ConflictCheckTimeout int    `env:"CONFLICT_CHECK_TIMEOUT" envDefault:"10"`
		OvertimeThreshold    int    `env:"OVERTIME_THRESHOLD_HOURS" envDefault:"12"`
		VersionRetries       int    `env:"VERSION_RETRIES" envDefault:"3"`
	} `envPrefix:"SCHEDULING_"`
	Outbox struct {
		PollInterval int `env:"POLL_INTERVAL" envDefault:"2"`
		BatchSize    int `env:"BATCH_SIZE" envDefault:"100"`
		MaxAttempts  int `env:"MAX_ATTEMPTS" envDefault:"20"`
	} `envPrefix:"OUTBOX_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// only the first error keeps the log readable
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Scheduling.Timezone)
}

func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.Database.QueryTimeout) * time.Second
}

func (c *Config) TransactionTimeout() time.Duration {
	return time.Duration(c.Database.TransactionTimeout) * time.Second
}
