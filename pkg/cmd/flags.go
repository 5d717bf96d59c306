package cmd

import (
	"time"

	"github.com/dukex/caseflow/pkg/actions"
	cli "github.com/urfave/cli/v3"
)

// CommonFlags are shared by every caseflow binary.
func CommonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "Database connection URL (postgres://... or file://path)",
			Value:   "file://./data",
			Sources: cli.EnvVars("DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus type (gochannel, kafka)",
			Value:   "gochannel",
			Sources: cli.EnvVars("EVENT_BUS_TYPE"),
		},
		&cli.StringFlag{
			Name:    "kafka-brokers",
			Usage:   "Comma separated Kafka brokers",
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Redis URL for reminders, analysis jobs and deferred steps",
			Sources: cli.EnvVars("REDIS_URL"),
		},
		&cli.DurationFlag{
			Name:    "action-timeout",
			Usage:   "Timeout of every collaborator call made by an action",
			Value:   actions.DefaultTimeout,
			Sources: cli.EnvVars("ACTION_TIMEOUT"),
		},
		&cli.BoolFlag{
			Name:    "tracing",
			Usage:   "Export traces with OTLP/HTTP (configured by OTEL_EXPORTER_OTLP_*)",
			Sources: cli.EnvVars("TRACING_ENABLED"),
		},
		&cli.BoolFlag{
			Name:    "run-history",
			Usage:   "Store every workflow run",
			Value:   true,
			Sources: cli.EnvVars("RUN_HISTORY"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "Log format (text, json, pretty)",
			Value:   "text",
			Sources: cli.EnvVars("LOG_FORMAT"),
		},
	}
}

// Config is the parsed form of CommonFlags.
type Config struct {
	DatabaseURL   string
	EventBus      string
	KafkaBrokers  string
	RedisURL      string
	ActionTimeout time.Duration
	Tracing       bool
	RunHistory    bool
	LogLevel      string
	LogFormat     string
}

func ConfigFromCommand(command *cli.Command) Config {
	return Config{
		DatabaseURL:   command.String("database-url"),
		EventBus:      command.String("event-bus"),
		KafkaBrokers:  command.String("kafka-brokers"),
		RedisURL:      command.String("redis-url"),
		ActionTimeout: command.Duration("action-timeout"),
		Tracing:       command.Bool("tracing"),
		RunHistory:    command.Bool("run-history"),
		LogLevel:      command.String("log-level"),
		LogFormat:     command.String("log-format"),
	}
}
