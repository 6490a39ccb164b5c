package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"bethel/streamtools/ytscheduler/internal/db"
	"bethel/streamtools/ytscheduler/internal/schedule"
	"bethel/streamtools/ytscheduler/internal/youtube"
)

type Config struct {
	ChannelID    string
	ClientID     string
	ClientSecret string
	RefreshToken string

	Slot        schedule.Slot
	MaxResults  int
	HTTPTimeout time.Duration
	DatabaseURL string
}

func main() {
	// Load .env automatically (if present). Real environment variables still override.
	// Optional override: ENV_FILE=path/to/.env
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Overload(envFile); err != nil {
			log.Printf("env: failed to load ENV_FILE=%q: %v", envFile, err)
		} else {
			log.Printf("env: loaded %s", envFile)
		}
	} else {
		if err := godotenv.Load(); err == nil {
			log.Printf("env: loaded .env")
		}
	}

	cfg := mustLoadConfig()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	yt := youtube.New(ctx, youtube.Credentials{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RefreshToken: cfg.RefreshToken,
	})
	yt.HTTPClient.Timeout = cfg.HTTPTimeout

	fetch := &http.Client{Timeout: cfg.HTTPTimeout}

	// The ledger is optional; every ledger failure is soft.
	pool := openLedger(ctx, cfg.DatabaseURL)
	if pool != nil {
		defer pool.Close()
	}

	if err := run(ctx, yt, fetch, pool, cfg); err != nil {
		log.Fatalf("broadcast: %v", err)
	}
	log.Printf("done")
}

func mustLoadConfig() Config {
	getInt := func(key string, def int) int {
		v := os.Getenv(key)
		if v == "" {
			return def
		}
		i, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("invalid %s=%q: %v", key, v, err)
		}
		return i
	}
	mustGet := func(key string) string {
		v := os.Getenv(key)
		if v == "" {
			log.Fatalf("missing %s (set it in the environment or .env)", key)
		}
		return v
	}

	tzName := os.Getenv("SCHEDULE_TZ")
	if tzName == "" {
		tzName = "America/Chicago"
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		log.Fatalf("invalid SCHEDULE_TZ=%q: %v", tzName, err)
	}

	weekday := getInt("SCHEDULE_WEEKDAY", int(time.Sunday))
	if weekday < 0 || weekday > 6 {
		log.Fatalf("invalid SCHEDULE_WEEKDAY=%d (want 0=Sunday..6=Saturday)", weekday)
	}
	hour := getInt("SCHEDULE_AT_HOUR", 9)
	if hour < 0 || hour > 23 {
		log.Fatalf("invalid SCHEDULE_AT_HOUR=%d", hour)
	}
	min := getInt("SCHEDULE_AT_MIN", 20)
	if min < 0 || min > 59 {
		log.Fatalf("invalid SCHEDULE_AT_MIN=%d", min)
	}

	return Config{
		ChannelID:    mustGet("CHANNEL_ID"),
		ClientID:     mustGet("CLIENT_ID"),
		ClientSecret: mustGet("CLIENT_SECRET"),
		RefreshToken: mustGet("REFRESH_TOKEN"),
		Slot: schedule.Slot{
			Weekday:  time.Weekday(weekday),
			Hour:     hour,
			Minute:   min,
			Location: loc,
		},
		MaxResults:  getInt("BROADCAST_MAX_RESULTS", 10),
		HTTPTimeout: time.Duration(getInt("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}
}

func openLedger(ctx context.Context, databaseURL string) *pgxpool.Pool {
	if databaseURL == "" {
		return nil
	}
	pool, err := db.NewPool(ctx, databaseURL)
	if err != nil {
		log.Printf("ledger: WARN connect failed, continuing without ledger: %v", err)
		return nil
	}
	if err := db.ApplySchema(ctx, pool); err != nil {
		log.Printf("ledger: WARN schema apply failed, continuing without ledger: %v", err)
		pool.Close()
		return nil
	}
	return pool
}
