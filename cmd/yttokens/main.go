package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/oauth2/google"

	"bethel/streamtools/ytscheduler/internal/youtube"
)

// yttokens runs the one-time consent flow and prints the credential lines
// the scheduler's .env needs.

func main() {
	secretsFile := os.Getenv("CLIENT_SECRETS_FILE")
	if secretsFile == "" {
		secretsFile = "client_secret.json"
	}

	b, err := os.ReadFile(secretsFile)
	if err != nil {
		log.Fatalf("read %s: %v", secretsFile, err)
	}
	conf, err := google.ConfigFromJSON(b, youtube.ScopeForceSSL)
	if err != nil {
		log.Fatalf("parse %s: %v", secretsFile, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tok, err := youtube.Authorize(ctx, conf)
	if err != nil {
		log.Fatalf("authorize: %v", err)
	}
	if tok.RefreshToken == "" {
		log.Fatalf("no refresh token granted; revoke the app's access at https://myaccount.google.com/permissions and retry")
	}

	fmt.Printf("\nCopy these values into your .env file:\n\n")
	fmt.Printf("CLIENT_ID=%s\n", conf.ClientID)
	fmt.Printf("CLIENT_SECRET=%s\n", conf.ClientSecret)
	fmt.Printf("ACCESS_TOKEN=%s\n", tok.AccessToken)
	fmt.Printf("REFRESH_TOKEN=%s\n", tok.RefreshToken)
}
