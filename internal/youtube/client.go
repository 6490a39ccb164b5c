package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	defaultBaseURL   = "https://www.googleapis.com/youtube/v3"
	defaultUploadURL = "https://www.googleapis.com/upload/youtube/v3"

	// ScopeYouTube grants full manage access to the channel's live resources.
	ScopeYouTube = "https://www.googleapis.com/auth/youtube"
	// ScopeForceSSL is the scope the token generator requests.
	ScopeForceSSL = "https://www.googleapis.com/auth/youtube.force-ssl"
)

type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	UploadURL  string
}

type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// New builds a client whose transport refreshes the access token from the
// long-lived refresh token on demand.
func New(ctx context.Context, creds Credentials) *Client {
	conf := OAuthConfig(creds.ClientID, creds.ClientSecret)
	hc := conf.Client(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken})
	hc.Timeout = 30 * time.Second
	return &Client{
		HTTPClient: hc,
		BaseURL:    defaultBaseURL,
		UploadURL:  defaultUploadURL,
	}
}

// NewWithHTTPClient wraps an already-authenticated http.Client (interactive
// token flow, or a test transport).
func NewWithHTTPClient(hc *http.Client) *Client {
	return &Client{
		HTTPClient: hc,
		BaseURL:    defaultBaseURL,
		UploadURL:  defaultUploadURL,
	}
}

func OAuthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{ScopeYouTube},
	}
}

type Broadcast struct {
	ID           string
	Title        string
	Description  string
	ThumbnailURL string

	PublishedAt        time.Time
	ScheduledStartTime *time.Time

	LifeCycleStatus string
	PrivacyStatus   string

	EnableAutoStart *bool
	EnableAutoStop  *bool
	BoundStreamID   string
}

type BroadcastRequest struct {
	Title              string
	Description        string
	ScheduledStartTime time.Time
	PrivacyStatus      string
	EnableAutoStart    bool
	EnableAutoStop     bool
	EnableDVR          bool
}

type Stream struct {
	ID               string
	IngestionAddress string
	StreamName       string
}

// ListMyBroadcasts lists the authenticated channel's broadcasts.
func (c *Client) ListMyBroadcasts(ctx context.Context, maxResults int) ([]Broadcast, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	u, _ := url.Parse(c.BaseURL + "/liveBroadcasts")
	q := u.Query()
	q.Set("part", "id,snippet,status,contentDetails")
	q.Set("mine", "true")
	q.Set("maxResults", strconv.Itoa(maxResults))
	u.RawQuery = q.Encode()

	var resp struct {
		Items []struct {
			ID      string `json:"id"`
			Snippet struct {
				Title              string `json:"title"`
				Description        string `json:"description"`
				PublishedAt        string `json:"publishedAt"`
				ScheduledStartTime string `json:"scheduledStartTime"`
				Thumbnails struct {
					Maxres  struct{ URL string `json:"url"` } `json:"maxres"`
					High    struct{ URL string `json:"url"` } `json:"high"`
					Medium  struct{ URL string `json:"url"` } `json:"medium"`
					Default struct{ URL string `json:"url"` } `json:"default"`
				} `json:"thumbnails"`
			} `json:"snippet"`
			Status struct {
				LifeCycleStatus string `json:"lifeCycleStatus"`
				PrivacyStatus   string `json:"privacyStatus"`
			} `json:"status"`
			ContentDetails struct {
				EnableAutoStart *bool  `json:"enableAutoStart"`
				EnableAutoStop  *bool  `json:"enableAutoStop"`
				BoundStreamID   string `json:"boundStreamId"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	if err := c.doJSON(ctx, http.MethodGet, u.String(), nil, &resp); err != nil {
		return nil, err
	}

	out := make([]Broadcast, 0, len(resp.Items))
	for _, it := range resp.Items {
		if it.ID == "" {
			continue
		}
		b := Broadcast{
			ID:              it.ID,
			Title:           it.Snippet.Title,
			Description:     it.Snippet.Description,
			ThumbnailURL:    pickThumb(it.Snippet.Thumbnails),
			LifeCycleStatus: it.Status.LifeCycleStatus,
			PrivacyStatus:   it.Status.PrivacyStatus,
			EnableAutoStart: it.ContentDetails.EnableAutoStart,
			EnableAutoStop:  it.ContentDetails.EnableAutoStop,
			BoundStreamID:   it.ContentDetails.BoundStreamID,
		}
		if ts := parseTimePtr(it.Snippet.PublishedAt); ts != nil {
			b.PublishedAt = *ts
		}
		b.ScheduledStartTime = parseTimePtr(it.Snippet.ScheduledStartTime)
		out = append(out, b)
	}
	return out, nil
}

// broadcastBody is the wire shape shared by insert and update.
type broadcastBody struct {
	ID      string `json:"id,omitempty"`
	Snippet struct {
		Title              string `json:"title"`
		Description        string `json:"description"`
		ScheduledStartTime string `json:"scheduledStartTime"`
	} `json:"snippet"`
	Status struct {
		PrivacyStatus string `json:"privacyStatus"`
	} `json:"status"`
	ContentDetails struct {
		EnableAutoStart bool `json:"enableAutoStart"`
		EnableAutoStop  bool `json:"enableAutoStop"`
		EnableDVR       bool `json:"enableDvr,omitempty"`
	} `json:"contentDetails"`
}

func newBroadcastBody(id string, r BroadcastRequest) broadcastBody {
	var b broadcastBody
	b.ID = id
	b.Snippet.Title = r.Title
	b.Snippet.Description = r.Description
	b.Snippet.ScheduledStartTime = r.ScheduledStartTime.UTC().Format(time.RFC3339)
	b.Status.PrivacyStatus = r.PrivacyStatus
	b.ContentDetails.EnableAutoStart = r.EnableAutoStart
	b.ContentDetails.EnableAutoStop = r.EnableAutoStop
	b.ContentDetails.EnableDVR = r.EnableDVR
	return b
}

func (c *Client) InsertBroadcast(ctx context.Context, r BroadcastRequest) (string, error) {
	u, _ := url.Parse(c.BaseURL + "/liveBroadcasts")
	q := u.Query()
	q.Set("part", "snippet,status,contentDetails")
	u.RawQuery = q.Encode()

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, u.String(), newBroadcastBody("", r), &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("insert broadcast: response missing id")
	}
	return resp.ID, nil
}

func (c *Client) UpdateBroadcast(ctx context.Context, id string, r BroadcastRequest) error {
	u, _ := url.Parse(c.BaseURL + "/liveBroadcasts")
	q := u.Query()
	q.Set("part", "snippet,status,contentDetails")
	u.RawQuery = q.Encode()

	return c.doJSON(ctx, http.MethodPut, u.String(), newBroadcastBody(id, r), nil)
}

// BindBroadcast associates a reusable ingestion stream with a broadcast.
func (c *Client) BindBroadcast(ctx context.Context, broadcastID, streamID string) error {
	u, _ := url.Parse(c.BaseURL + "/liveBroadcasts/bind")
	q := u.Query()
	q.Set("part", "id,contentDetails")
	q.Set("id", broadcastID)
	q.Set("streamId", streamID)
	u.RawQuery = q.Encode()

	var resp struct {
		ID             string `json:"id"`
		ContentDetails struct {
			BoundStreamID string `json:"boundStreamId"`
		} `json:"contentDetails"`
	}
	if err := c.doJSON(ctx, http.MethodPost, u.String(), nil, &resp); err != nil {
		return err
	}
	if resp.ContentDetails.BoundStreamID != "" && resp.ContentDetails.BoundStreamID != streamID {
		return fmt.Errorf("bind broadcast %s: bound to unexpected stream %s", broadcastID, resp.ContentDetails.BoundStreamID)
	}
	return nil
}

// InsertStream creates a reusable 1080p/60fps RTMP ingestion stream.
func (c *Client) InsertStream(ctx context.Context, title string) (Stream, error) {
	u, _ := url.Parse(c.BaseURL + "/liveStreams")
	q := u.Query()
	q.Set("part", "snippet,cdn,contentDetails")
	u.RawQuery = q.Encode()

	body := map[string]any{
		"snippet": map[string]any{"title": title},
		"cdn": map[string]any{
			"frameRate":     "60fps",
			"ingestionType": "rtmp",
			"resolution":    "1080p",
		},
		"contentDetails": map[string]any{"isReusable": true},
	}

	var resp struct {
		ID  string `json:"id"`
		CDN struct {
			IngestionInfo struct {
				IngestionAddress string `json:"ingestionAddress"`
				StreamName       string `json:"streamName"`
			} `json:"ingestionInfo"`
		} `json:"cdn"`
	}
	if err := c.doJSON(ctx, http.MethodPost, u.String(), body, &resp); err != nil {
		return Stream{}, err
	}
	if resp.ID == "" {
		return Stream{}, fmt.Errorf("insert stream: response missing id")
	}
	return Stream{
		ID:               resp.ID,
		IngestionAddress: resp.CDN.IngestionInfo.IngestionAddress,
		StreamName:       resp.CDN.IngestionInfo.StreamName,
	}, nil
}

// GetStream looks up an existing stream's ingestion endpoint.
func (c *Client) GetStream(ctx context.Context, streamID string) (Stream, error) {
	u, _ := url.Parse(c.BaseURL + "/liveStreams")
	q := u.Query()
	q.Set("part", "id,cdn")
	q.Set("id", streamID)
	u.RawQuery = q.Encode()

	var resp struct {
		Items []struct {
			ID  string `json:"id"`
			CDN struct {
				IngestionInfo struct {
					IngestionAddress string `json:"ingestionAddress"`
					StreamName       string `json:"streamName"`
				} `json:"ingestionInfo"`
			} `json:"cdn"`
		} `json:"items"`
	}
	if err := c.doJSON(ctx, http.MethodGet, u.String(), nil, &resp); err != nil {
		return Stream{}, err
	}
	if len(resp.Items) == 0 {
		return Stream{}, fmt.Errorf("stream not found: %s", streamID)
	}
	it := resp.Items[0]
	return Stream{
		ID:               it.ID,
		IngestionAddress: it.CDN.IngestionInfo.IngestionAddress,
		StreamName:       it.CDN.IngestionInfo.StreamName,
	}, nil
}

// SetThumbnail uploads image bytes as the broadcast's thumbnail.
func (c *Client) SetThumbnail(ctx context.Context, videoID string, r io.Reader, contentType string) error {
	u, _ := url.Parse(c.UploadURL + "/thumbnails/set")
	q := u.Query()
	q.Set("videoId", videoID)
	q.Set("uploadType", "media")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), r)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}
	req.Header.Set("Content-Type", contentType)

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(res.Body, 2<<20))
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("youtube api http %d: %s", res.StatusCode, string(body))
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, rawURL string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(res.Body, 2<<20))
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("youtube api http %d: %s", res.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

func parseTimePtr(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	tt := t.UTC()
	return &tt
}

func pickThumb(t struct {
	Maxres  struct{ URL string `json:"url"` } `json:"maxres"`
	High    struct{ URL string `json:"url"` } `json:"high"`
	Medium  struct{ URL string `json:"url"` } `json:"medium"`
	Default struct{ URL string `json:"url"` } `json:"default"`
}) string {
	if t.Maxres.URL != "" {
		return t.Maxres.URL
	}
	if t.High.URL != "" {
		return t.High.URL
	}
	if t.Medium.URL != "" {
		return t.Medium.URL
	}
	return t.Default.URL
}
