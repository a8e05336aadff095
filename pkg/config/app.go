package config

import (
	"fmt"
	"log/slog"

	"github.com/anggasct/statechart/pkg/logger"
)

// Store drivers accepted by App.StoreDriver.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

// App holds the settings of the statechart command line runner.
type App struct {
	LogLevel    string `env:"STATECHART_LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"STATECHART_LOG_FORMAT" envDefault:"text"`
	Environment string `env:"STATECHART_ENV" envDefault:"development"`

	StoreDriver   string `env:"STATECHART_STORE" envDefault:"memory"`
	KeyPrefix     string `env:"STATECHART_KEY_PREFIX" envDefault:"statechart:"`
	RedisURL      string `env:"STATECHART_REDIS_URL"`
	PostgresURL   string `env:"STATECHART_POSTGRES_URL"`
	PostgresTable string `env:"STATECHART_POSTGRES_TABLE" envDefault:"statechart_snapshots"`
	MongoURL      string `env:"STATECHART_MONGO_URL"`
	MongoDatabase string `env:"STATECHART_MONGO_DATABASE" envDefault:"statechart"`

	DoActions bool `env:"STATECHART_DO_ACTIONS" envDefault:"false"`
	Tracing   bool `env:"STATECHART_TRACING" envDefault:"false"`
}

// Validate checks that the selected store has its connection URL.
func (a App) Validate() error {
	if _, err := logger.ParseLevel(a.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch logger.Format(a.LogFormat) {
	case logger.FormatJSON, logger.FormatText:
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalidConfig, a.LogFormat)
	}

	var url string
	switch a.StoreDriver {
	case StoreMemory:
		return nil
	case StoreRedis:
		url = a.RedisURL
	case StorePostgres:
		url = a.PostgresURL
	case StoreMongo:
		url = a.MongoURL
	default:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalidConfig, a.StoreDriver)
	}
	if url == "" {
		return fmt.Errorf("%w: store %q requires a connection url", ErrInvalidConfig, a.StoreDriver)
	}
	return nil
}

// Logger builds the process logger from the log settings. Extra options are
// applied last.
func (a App) Logger(opts ...logger.Option) *slog.Logger {
	level, err := logger.ParseLevel(a.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	format := logger.FormatText
	if logger.Format(a.LogFormat) == logger.FormatJSON {
		format = logger.FormatJSON
	}
	return logger.New(append([]logger.Option{
		logger.WithFormat(format),
		logger.WithLevel(level),
		logger.WithAttr(slog.String("env", a.Environment)),
	}, opts...)...)
}
