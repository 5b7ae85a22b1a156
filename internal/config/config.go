package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type DatabaseConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string
}

type Config struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	Database    DatabaseConfig
	RedisAddr   string
	KafkaBroker string
	JWTSecret   string

	// HRApproverID is the sentinel second-line approver for every request.
	HRApproverID uuid.UUID
	// Holidays overrides the built-in calendar when set (comma separated YYYY-MM-DD).
	Holidays []string

	RateLimitRPS   float64
	RateLimitBurst int

	SeedLeaveTypes bool
	MaxRetries     int
}

// Load reads the process environment. godotenv.Load is expected to have run already.
func Load() (Config, error) {
	cfg := Config{
		Port:         getEnv("PORT", "3000"),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			Port:     getEnv("DB_PORT", "5432"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		KafkaBroker: os.Getenv("KAFKA_BROKER"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		MaxRetries:  5,
	}

	var errs []error

	hrID := os.Getenv("HR_APPROVER_ID")
	if hrID == "" {
		errs = append(errs, errors.New("HR_APPROVER_ID is required"))
	} else if id, err := uuid.Parse(hrID); err != nil {
		errs = append(errs, fmt.Errorf("HR_APPROVER_ID: %w", err))
	} else {
		cfg.HRApproverID = id
	}

	if cfg.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}

	if v := os.Getenv("HOLIDAYS"); v != "" {
		for _, d := range strings.Split(v, ",") {
			if d = strings.TrimSpace(d); d != "" {
				cfg.Holidays = append(cfg.Holidays, d)
			}
		}
	}

	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "10"), 64)
	if err != nil {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS: %w", err))
	}
	cfg.RateLimitRPS = rps

	burst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "20"))
	if err != nil {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST: %w", err))
	}
	cfg.RateLimitBurst = burst

	seed, err := strconv.ParseBool(getEnv("SEED_LEAVE_TYPES", "false"))
	if err != nil {
		errs = append(errs, fmt.Errorf("SEED_LEAVE_TYPES: %w", err))
	}
	cfg.SeedLeaveTypes = seed

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
