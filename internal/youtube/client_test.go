package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewWithHTTPClient(srv.Client())
	c.BaseURL = srv.URL
	c.UploadURL = srv.URL + "/upload"
	return c
}

const listFixture = `{
  "items": [
    {
      "id": "bc-1",
      "snippet": {
        "title": "Service - 2024 01 07",
        "description": "See you Sunday",
        "publishedAt": "2024-01-01T12:00:00Z",
        "scheduledStartTime": "2024-01-07T15:20:00Z",
        "thumbnails": {
          "default": {"url": "https://img/default.jpg"},
          "medium": {"url": "https://img/medium.jpg"},
          "high": {"url": "https://img/high.jpg"}
        }
      },
      "status": {"lifeCycleStatus": "upcoming", "privacyStatus": "public"},
      "contentDetails": {"enableAutoStart": true, "enableAutoStop": false, "boundStreamId": "stream-1"}
    },
    {
      "id": "bc-0",
      "snippet": {
        "title": "Service - 2023 12 31",
        "publishedAt": "2023-12-25T12:00:00Z",
        "thumbnails": {"default": {"url": "https://img/old.jpg"}}
      },
      "status": {"lifeCycleStatus": "complete", "privacyStatus": "unlisted"},
      "contentDetails": {}
    }
  ]
}`

func TestListMyBroadcasts(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/liveBroadcasts", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "true", q.Get("mine"))
		assert.Equal(t, "10", q.Get("maxResults"))
		assert.Equal(t, "id,snippet,status,contentDetails", q.Get("part"))
		io.WriteString(w, listFixture)
	})

	got, err := c.ListMyBroadcasts(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	b := got[0]
	assert.Equal(t, "bc-1", b.ID)
	assert.Equal(t, "Service - 2024 01 07", b.Title)
	assert.Equal(t, "See you Sunday", b.Description)
	// No maxres in the fixture: high wins over medium and default.
	assert.Equal(t, "https://img/high.jpg", b.ThumbnailURL)
	assert.Equal(t, "upcoming", b.LifeCycleStatus)
	assert.Equal(t, "public", b.PrivacyStatus)
	assert.Equal(t, "stream-1", b.BoundStreamID)
	require.NotNil(t, b.EnableAutoStart)
	assert.True(t, *b.EnableAutoStart)
	require.NotNil(t, b.EnableAutoStop)
	assert.False(t, *b.EnableAutoStop)
	assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), b.PublishedAt)
	require.NotNil(t, b.ScheduledStartTime)
	assert.Equal(t, time.Date(2024, 1, 7, 15, 20, 0, 0, time.UTC), *b.ScheduledStartTime)

	old := got[1]
	assert.Equal(t, "https://img/old.jpg", old.ThumbnailURL)
	assert.Nil(t, old.EnableAutoStart)
	assert.Nil(t, old.ScheduledStartTime)
}

func TestInsertBroadcast(t *testing.T) {
	var gotBody map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/liveBroadcasts", r.URL.Path)
		assert.Equal(t, "snippet,status,contentDetails", r.URL.Query().Get("part"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		io.WriteString(w, `{"id": "new-1"}`)
	})

	id, err := c.InsertBroadcast(context.Background(), BroadcastRequest{
		Title:              "Service - 2024 01 14",
		Description:        "See you Sunday",
		ScheduledStartTime: time.Date(2024, 1, 14, 15, 20, 0, 0, time.UTC),
		PrivacyStatus:      "public",
		EnableAutoStart:    true,
		EnableAutoStop:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, "new-1", id)

	snippet := gotBody["snippet"].(map[string]any)
	assert.Equal(t, "Service - 2024 01 14", snippet["title"])
	assert.Equal(t, "2024-01-14T15:20:00Z", snippet["scheduledStartTime"])
	status := gotBody["status"].(map[string]any)
	assert.Equal(t, "public", status["privacyStatus"])
	details := gotBody["contentDetails"].(map[string]any)
	assert.Equal(t, true, details["enableAutoStart"])
	assert.Equal(t, true, details["enableAutoStop"])
	_, hasDVR := details["enableDvr"]
	assert.False(t, hasDVR, "enableDvr must be omitted when unset")
	_, hasID := gotBody["id"]
	assert.False(t, hasID, "insert body must not carry an id")
}

func TestInsertBroadcastMissingID(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	})
	_, err := c.InsertBroadcast(context.Background(), BroadcastRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing id")
}

func TestUpdateBroadcast(t *testing.T) {
	var gotBody map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/liveBroadcasts", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		io.WriteString(w, `{"id": "bc-1"}`)
	})

	err := c.UpdateBroadcast(context.Background(), "bc-1", BroadcastRequest{
		Title:              "Service - 2024 01 14",
		ScheduledStartTime: time.Date(2024, 1, 14, 15, 20, 0, 0, time.UTC),
		PrivacyStatus:      "public",
	})
	require.NoError(t, err)
	assert.Equal(t, "bc-1", gotBody["id"])
}

func TestBindBroadcast(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/liveBroadcasts/bind", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "bc-1", q.Get("id"))
		assert.Equal(t, "stream-1", q.Get("streamId"))
		io.WriteString(w, `{"id": "bc-1", "contentDetails": {"boundStreamId": "stream-1"}}`)
	})

	err := c.BindBroadcast(context.Background(), "bc-1", "stream-1")
	require.NoError(t, err)
}

func TestInsertStream(t *testing.T) {
	var gotBody map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/liveStreams", r.URL.Path)
		assert.Equal(t, "snippet,cdn,contentDetails", r.URL.Query().Get("part"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		io.WriteString(w, `{
			"id": "stream-1",
			"cdn": {"ingestionInfo": {"ingestionAddress": "rtmp://a.rtmp.youtube.com/live2", "streamName": "abcd-1234"}}
		}`)
	})

	st, err := c.InsertStream(context.Background(), "My Reusable Live Stream")
	require.NoError(t, err)
	assert.Equal(t, "stream-1", st.ID)
	assert.Equal(t, "rtmp://a.rtmp.youtube.com/live2", st.IngestionAddress)
	assert.Equal(t, "abcd-1234", st.StreamName)

	cdn := gotBody["cdn"].(map[string]any)
	assert.Equal(t, "60fps", cdn["frameRate"])
	assert.Equal(t, "rtmp", cdn["ingestionType"])
	assert.Equal(t, "1080p", cdn["resolution"])
	details := gotBody["contentDetails"].(map[string]any)
	assert.Equal(t, true, details["isReusable"])
}

func TestSetThumbnail(t *testing.T) {
	var gotBytes []byte
	var gotCT string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/upload/thumbnails/set", r.URL.Path)
		assert.Equal(t, "bc-1", r.URL.Query().Get("videoId"))
		gotCT = r.Header.Get("Content-Type")
		gotBytes, _ = io.ReadAll(r.Body)
		io.WriteString(w, `{}`)
	})

	img := bytes.Repeat([]byte{0xff, 0xd8}, 16)
	err := c.SetThumbnail(context.Background(), "bc-1", bytes.NewReader(img), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, img, gotBytes)
	assert.Equal(t, "image/jpeg", gotCT)
}

func TestErrorCarriesStatusAndBody(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"error": {"message": "quotaExceeded"}}`)
	})

	_, err := c.ListMyBroadcasts(context.Background(), 10)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "http 403"), "err = %v", err)
	assert.True(t, strings.Contains(err.Error(), "quotaExceeded"), "err = %v", err)
}
