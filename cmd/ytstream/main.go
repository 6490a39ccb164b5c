package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"bethel/streamtools/ytscheduler/internal/streamid"
	"bethel/streamtools/ytscheduler/internal/youtube"
)

// ytstream schedules a one-off broadcast a short offset out and owns the
// reusable ingestion stream: it creates the stream once, persists its id,
// and rebinds it on every later run.

type Config struct {
	ClientSecretsFile string
	TokenFile         string
	StreamIDFile      string
	RedisURL          string
	RedisPassword     string

	OffsetMinutes int
	Title         string
	Description   string
	Privacy       string
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

	cfg := loadConfig()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	yt, err := authedClient(ctx, cfg)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}

	store, closeStore, err := newStore(cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer closeStore()

	stream, err := findOrCreateStream(ctx, yt, store)
	if err != nil {
		log.Fatalf("stream: %v", err)
	}

	start := time.Now().UTC().Add(time.Duration(cfg.OffsetMinutes) * time.Minute).Truncate(time.Second)
	videoID, err := yt.InsertBroadcast(ctx, youtube.BroadcastRequest{
		Title:              cfg.Title,
		Description:        cfg.Description,
		ScheduledStartTime: start,
		PrivacyStatus:      cfg.Privacy,
		EnableDVR:          true,
	})
	if err != nil {
		log.Fatalf("broadcast: insert failed: %v", err)
	}
	log.Printf("broadcast: created %s start=%s", videoID, start.Format(time.RFC3339))

	if err := yt.BindBroadcast(ctx, videoID, stream.ID); err != nil {
		log.Fatalf("bind: %v", err)
	}
	log.Printf("bind: bound broadcast %s to stream %s", videoID, stream.ID)

	if stream.IngestionAddress != "" {
		fmt.Printf("\nSend your encoder output to:\n")
		fmt.Printf("  Ingestion Address: %s\n", stream.IngestionAddress)
		fmt.Printf("  Stream Name/Key:   %s\n", stream.StreamName)
	}
}

func loadConfig() Config {
	get := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}
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

	return Config{
		ClientSecretsFile: get("CLIENT_SECRETS_FILE", "client_secret.json"),
		TokenFile:         get("TOKEN_FILE", "token.json"),
		StreamIDFile:      get("STREAM_ID_FILE", "reusable_stream_id.txt"),
		RedisURL:          os.Getenv("REDIS_URL"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		OffsetMinutes:     getInt("OFFSET_MINUTES", 30),
		Title:             get("BROADCAST_TITLE", "My Scheduled Live Stream (Reusable)"),
		Description:       get("BROADCAST_DESCRIPTION", "This is a test using a reusable YouTube stream key."),
		Privacy:           get("BROADCAST_PRIVACY", "public"),
	}
}

// authedClient authenticates from client_secret.json + token.json, running
// the interactive consent flow (and saving the token) when the stored token
// is missing or unusable.
func authedClient(ctx context.Context, cfg Config) (*youtube.Client, error) {
	secrets, err := os.ReadFile(cfg.ClientSecretsFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", cfg.ClientSecretsFile, err)
	}
	conf, err := google.ConfigFromJSON(secrets, youtube.ScopeYouTube)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", cfg.ClientSecretsFile, err)
	}

	tok := loadToken(cfg.TokenFile)
	if tok == nil || (tok.RefreshToken == "" && !tok.Valid()) {
		tok, err = youtube.Authorize(ctx, conf)
		if err != nil {
			return nil, err
		}
		if err := saveToken(cfg.TokenFile, tok); err != nil {
			log.Printf("auth: WARN could not save %s: %v", cfg.TokenFile, err)
		} else {
			log.Printf("auth: saved %s", cfg.TokenFile)
		}
	}

	hc := conf.Client(ctx, tok)
	hc.Timeout = 30 * time.Second
	return youtube.NewWithHTTPClient(hc), nil
}

func loadToken(path string) *oauth2.Token {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		log.Printf("auth: WARN invalid token file %s: %v", path, err)
		return nil
	}
	return &tok
}

func saveToken(path string, tok *oauth2.Token) error {
	b, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

func newStore(cfg Config) (streamid.Store, func(), error) {
	if cfg.RedisURL == "" {
		return &streamid.FileStore{Path: cfg.StreamIDFile}, func() {}, nil
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	if cfg.RedisPassword != "" {
		opt.Password = cfg.RedisPassword
	}
	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	return &streamid.RedisStore{Client: rdb}, func() { _ = rdb.Close() }, nil
}

// findOrCreateStream loads the persisted reusable stream id, creating and
// persisting a fresh stream when none exists yet.
func findOrCreateStream(ctx context.Context, yt *youtube.Client, store streamid.Store) (youtube.Stream, error) {
	id, err := store.Load(ctx)
	switch {
	case errors.Is(err, streamid.ErrNotFound):
		st, err := yt.InsertStream(ctx, "My Reusable Live Stream")
		if err != nil {
			return youtube.Stream{}, fmt.Errorf("create reusable stream: %w", err)
		}
		if err := store.Save(ctx, st.ID); err != nil {
			// Unsaved id means the next run creates another stream.
			return youtube.Stream{}, fmt.Errorf("persist stream id %s: %w", st.ID, err)
		}
		log.Printf("stream: created reusable stream %s", st.ID)
		return st, nil
	case err != nil:
		return youtube.Stream{}, err
	}

	log.Printf("stream: using existing reusable stream %s", id)
	st, err := yt.GetStream(ctx, id)
	if err != nil {
		// The id is still bindable even when the lookup fails.
		log.Printf("stream: WARN could not fetch ingestion info: %v", err)
		return youtube.Stream{ID: id}, nil
	}
	return st, nil
}
