package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/1webtutor/social-content-aggregator/internal/cache"
	"github.com/1webtutor/social-content-aggregator/internal/store"
	"github.com/1webtutor/social-content-aggregator/pkg/aggregate"
	"github.com/1webtutor/social-content-aggregator/pkg/hashtag"
	"github.com/1webtutor/social-content-aggregator/pkg/provider"
	"github.com/1webtutor/social-content-aggregator/pkg/publish"
)

func newTestServer(t *testing.T) (*Server, *store.SQLiteStore) {
	t.Helper()

	db, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	entry := logrus.NewEntry(log)

	hashtags := hashtag.NewEngine(db)
	agg := aggregate.New(
		nil,
		provider.NewPool(nil, nil, db, entry),
		nil,
		cache.New(),
		hashtags,
		publish.NewPlanner("draft", "", "", ""),
		db,
		aggregate.Config{},
		entry,
	)

	return New(db, agg, hashtags, nil, 0), db
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandleFetchRequiresKeyword(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.handleFetch(rec, httptest.NewRequest(http.MethodGet, "/api/v1/fetch", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleFetchRejectsUnknownPlatform(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.handleFetch(rec, httptest.NewRequest(http.MethodGet, "/api/v1/fetch?keyword=sale&platforms=myspace", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleHashtags(t *testing.T) {
	srv, db := newTestServer(t)

	require.NoError(t, db.UpsertHashtagStat(context.Background(), &store.HashtagStat{
		Hashtag:       "sunset",
		UsageCount:    3,
		AvgEngagement: 42,
		LastSeen:      time.Now().UTC(),
	}))

	rec := httptest.NewRecorder()
	srv.handleHashtags(rec, httptest.NewRequest(http.MethodGet, "/api/v1/hashtags", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int                 `json:"count"`
		Data  []store.HashtagStat `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	require.Equal(t, "sunset", body.Data[0].Hashtag)
}

func TestHandleSchedulersCreateAndList(t *testing.T) {
	srv, _ := newTestServer(t)

	payload := `{"keyword":"summer sale","publish_mode":"draft","frequency":"daily","max_posts":5}`
	rec := httptest.NewRecorder()
	srv.handleSchedulers(rec, httptest.NewRequest(http.MethodPost, "/api/v1/schedulers", strings.NewReader(payload)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created store.SchedulerConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotZero(t, created.ID)
	require.True(t, created.IsActive)
	require.Equal(t, "social_posts", created.PostType)
	require.Len(t, created.Platforms, 3)

	rec = httptest.NewRecorder()
	srv.handleSchedulers(rec, httptest.NewRequest(http.MethodGet, "/api/v1/schedulers", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var listed struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Equal(t, 1, listed.Count)
}

func TestHandleSchedulersRejectsEmptyKeyword(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.handleSchedulers(rec, httptest.NewRequest(http.MethodPost, "/api/v1/schedulers", strings.NewReader(`{"keyword":"  "}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRunSchedulersWithoutRunner(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.handleRunSchedulers(rec, httptest.NewRequest(http.MethodPost, "/api/v1/schedulers/run", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.handleSync(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sync", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	srv.handleEntries(rec, httptest.NewRequest(http.MethodPost, "/api/v1/entries", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
