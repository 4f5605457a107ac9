package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultPort         = "8080"
	DefaultAllocatorURL = "http://localhost:3000"
)

// Config holds the runtime configuration of the booking client
type Config struct {
	Port            string
	AllocatorURL    string
	PollInterval    time.Duration
	PollMaxFailures int
	LayoutInterval  time.Duration
	HTTPTimeout     time.Duration
	DatabaseURL     string
	JWTSecret       string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RabbitMQURL     string
	HistoryLimit    int
}

// Load reads a .env file when present, then the environment
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: ignoring .env: %v", err)
	}
	return FromEnv()
}

// FromEnv reads the configuration from the environment only
func FromEnv() (Config, error) {
	var errs []error
	cfg := Config{
		Port:            getEnv("CONSOLE_PORT", DefaultPort),
		AllocatorURL:    getEnv("ALLOCATOR_URL", DefaultAllocatorURL),
		PollInterval:    getDuration("POLL_INTERVAL", 2*time.Second, &errs),
		PollMaxFailures: getInt("POLL_MAX_FAILURES", 0, &errs),
		LayoutInterval:  getDuration("LAYOUT_INTERVAL", 3*time.Second, &errs),
		HTTPTimeout:     getDuration("HTTP_TIMEOUT", 10*time.Second, &errs),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         getInt("REDIS_DB", 0, &errs),
		RabbitMQURL:     os.Getenv("RABBITMQ_URL"),
		HistoryLimit:    getInt("HISTORY_LIMIT", 10, &errs),
	}
	if cfg.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("POLL_INTERVAL must be positive"))
	}
	if cfg.LayoutInterval <= 0 {
		errs = append(errs, fmt.Errorf("LAYOUT_INTERVAL must be positive"))
	}
	if cfg.PollMaxFailures < 0 {
		errs = append(errs, fmt.Errorf("POLL_MAX_FAILURES must not be negative"))
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getInt(key string, defaultValue int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid int for %s: %q", key, v))
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid duration for %s: %q", key, v))
		return defaultValue
	}
	return d
}
