package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the dashboard.
type Config struct {
	TelegramToken     string
	OwnerID           int64
	DatabaseURL       string
	DBDebug           bool
	ResetTime         string
	RecalcInterval    time.Duration
	Location          *time.Location
	ResetWeekSpecific bool
	MetricsAddr       string
}

// Load reads an optional env file and then environment variables with sane
// defaults. Variables already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := Config{
		TelegramToken:     env("TELEGRAM_TOKEN"),
		DatabaseURL:       env("DATABASE_URL"),
		DBDebug:           parseBool(env("DB_DEBUG")),
		ResetTime:         env("RESET_TIME"),
		RecalcInterval:    6 * time.Hour,
		ResetWeekSpecific: parseBool(env("RESET_WEEK_SPECIFIC")),
		MetricsAddr:       env("METRICS_ADDR"),
		Location:          time.Local,
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "twelve_week.db"
	}

	if cfg.ResetTime == "" {
		cfg.ResetTime = "00:05"
	}

	if raw := env("RECALC_INTERVAL_HOURS"); raw != "" {
		interval, err := parseInterval(raw)
		if err != nil {
			return cfg, err
		}
		cfg.RecalcInterval = interval
	}

	if raw := env("TELEGRAM_OWNER_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("TELEGRAM_OWNER_ID: %w", err)
		}
		cfg.OwnerID = id
	}

	if tz := env("TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return cfg, fmt.Errorf("TIMEZONE: %w", err)
		}
		cfg.Location = loc
	}

	return cfg, nil
}

// RequireBot checks the settings needed to run the Telegram bot.
func (c Config) RequireBot() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parseBool(raw string) bool {
	v, err := strconv.ParseBool(raw)
	return err == nil && v
}

// parseInterval reads a number of hours. Zero disables the job.
func parseInterval(raw string) (time.Duration, error) {
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("RECALC_INTERVAL_HOURS: invalid value %q", raw)
	}
	return hours, nil
}
