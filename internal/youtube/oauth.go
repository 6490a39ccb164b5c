package youtube

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"

	"golang.org/x/oauth2"
)

// Authorize runs the interactive consent flow: it starts a redirect
// listener on a loopback port, prints the consent URL, waits for the
// browser redirect, and exchanges the code for a token. The returned
// token carries a refresh token (offline access is always requested).
func Authorize(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen for oauth redirect: %w", err)
	}
	defer ln.Close()

	cfg := *conf
	cfg.RedirectURL = fmt.Sprintf("http://%s/", ln.Addr().String())

	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}
	state := hex.EncodeToString(raw)

	type result struct {
		code string
		err  error
	}
	ch := make(chan result, 1)

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			ch <- result{err: fmt.Errorf("oauth redirect state mismatch")}
		case q.Get("error") != "":
			http.Error(w, "authorization denied", http.StatusBadRequest)
			ch <- result{err: fmt.Errorf("authorization denied: %s", q.Get("error"))}
		default:
			fmt.Fprintln(w, "Authorization complete. You can close this tab.")
			ch <- result{code: q.Get("code")}
		}
	})}
	go func() { _ = srv.Serve(ln) }()
	defer srv.Close()

	fmt.Printf("Visit this URL to authorize:\n\n  %s\n\n", cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce))

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		tok, err := cfg.Exchange(ctx, r.code)
		if err != nil {
			return nil, fmt.Errorf("exchange authorization code: %w", err)
		}
		return tok, nil
	}
}
