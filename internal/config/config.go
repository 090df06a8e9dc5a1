package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/corray333/gamesbakery/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. GAMESBAKERY_STORAGE_DRIVER.
const EnvPrefix = "GAMESBAKERY"

// MustInit loads .env (when present) and config.yaml, then installs the
// default logger. Every key may be overridden from the environment.
func MustInit() {
	if err := godotenv.Load("./.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic("error while loading .env file: " + err.Error())
	}

	setDefaults()
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/gamesbakery")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		panic("error while reading config file: " + err.Error())
	}

	SetupLogger()
}

func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("server.http.port", 8080)
	viper.SetDefault("storage.driver", "postgres")
	viper.SetDefault("postgres.migrations_path", "./migrations")
	viper.SetDefault("events.broker", "none")
	viper.SetDefault("events.exchange", "gamesbakery.orders")
	viper.SetDefault("events.producer", "gamesbakery")
	viper.SetDefault("outbox.max_retries", 8)
	viper.SetDefault("scheduler.precedence", "overdue")
}

func SetupLogger() {
	handler := logger.NewHandler(&logger.HandlerOptions{
		Level:  logger.ParseLevel(viper.GetString("log.level")),
		Format: viper.GetString("log.format"),
	})
	slog.SetDefault(slog.New(handler))
}
