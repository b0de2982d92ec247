package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	"github.com/jdziat/backgrounder/pkg/core"
)

// Env is the environment-variable form of the settings. With the prefix
// BACKGROUNDER the variables are BACKGROUNDER_QUEUE, BACKGROUNDER_RETRY, ...
type Env struct {
	Queue             string     `envconfig:"QUEUE" default:"default"`
	Retry             core.Retry `envconfig:"RETRY" default:"false"`
	Backtrace         bool       `envconfig:"BACKTRACE" default:"true"`
	UseErrorReporting bool       `envconfig:"USE_ERROR_REPORTING" default:"false"`
	Pool              string     `envconfig:"POOL"`
	LogLevel          string     `envconfig:"LOG_LEVEL" default:"info"`
	SentryDSN         string     `envconfig:"SENTRY_DSN"`
	Environment       string     `envconfig:"ENVIRONMENT" default:"development"`
	RedisURL          string     `envconfig:"REDIS_URL"`
	DatabaseURL       string     `envconfig:"DATABASE_URL"`
}

// LoadEnv reads the settings from the environment. Outside production
// (ENV=production or ENV=prod) the given dotenv files, or ".env" when none
// are given, are loaded first; missing files are ignored.
func LoadEnv(prefix string, files ...string) (Env, error) {
	env := os.Getenv("ENV")
	if env != "production" && env != "prod" {
		if len(files) == 0 {
			files = []string{".env"}
		}
		for _, f := range files {
			if err := godotenv.Load(f); err != nil {
				logrus.Debugf("unable to load %s file: %v", f, err)
			}
		}
	}

	var e Env
	if err := envconfig.Process(prefix, &e); err != nil {
		return Env{}, fmt.Errorf("backgrounder: load config: %w", err)
	}
	return e, nil
}

// Configuration builds a Configuration from the loaded settings, with a new
// logrus logger at LogLevel.
func (e Env) Configuration() (*Configuration, error) {
	level, err := logrus.ParseLevel(e.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("backgrounder: %w", err)
	}
	logger := logrus.New()
	logger.SetLevel(level)

	return Configure(nil, func(c *Configuration) {
		c.Logger = logger
		c.Queue = e.Queue
		c.Retry = e.Retry
		c.Backtrace = e.Backtrace
		c.UseErrorReporting = e.UseErrorReporting
		c.Pool = e.Pool
	}), nil
}
