package provider

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/1webtutor/social-content-aggregator/internal/store"
	"github.com/1webtutor/social-content-aggregator/pkg/record"
)

type fakeScraper struct {
	name    string
	creds   bool
	records []record.Record
	err     error
	calls   int
}

func (f *fakeScraper) Name() string         { return f.name }
func (f *fakeScraper) HasCredentials() bool { return f.creds }
func (f *fakeScraper) Fetch(ctx context.Context, keyword string, platforms []record.Platform) ([]record.Record, error) {
	f.calls++
	return f.records, f.err
}

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func newPoolStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	db, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestFetchPooledRoundRobin(t *testing.T) {
	a := &fakeScraper{name: "a", creds: true}
	b := &fakeScraper{name: "b", creds: true}
	db := newPoolStore(t)
	pool := NewPool([]Scraper{a, b}, map[string]int{"a": 10, "b": 10}, db, testLogger())

	pool.FetchPooled(context.Background(), "sale", nil, 5)

	require.Equal(t, 3, a.calls)
	require.Equal(t, 2, b.calls)

	usage, err := db.GetScraperUsage(context.Background(), "a")
	require.NoError(t, err)
	require.NotNil(t, usage)
	require.Equal(t, 3, usage.CallsMade)
}

func TestFetchPooledSkipsExhaustedBackend(t *testing.T) {
	a := &fakeScraper{name: "a", creds: true}
	b := &fakeScraper{name: "b", creds: true}
	db := newPoolStore(t)
	pool := NewPool([]Scraper{a, b}, map[string]int{"a": 2, "b": 10}, db, testLogger())

	pool.FetchPooled(context.Background(), "sale", nil, 5)

	// Backend a drops out after its two budgeted calls; b absorbs the rest.
	require.Equal(t, 2, a.calls)
	require.Equal(t, 3, b.calls)
}

func TestFetchPooledStopsWhenAllExhausted(t *testing.T) {
	a := &fakeScraper{name: "a", creds: true}
	db := newPoolStore(t)
	pool := NewPool([]Scraper{a}, map[string]int{"a": 2}, db, testLogger())

	pool.FetchPooled(context.Background(), "sale", nil, 50)
	require.Equal(t, 2, a.calls)
}

func TestFetchPooledNoCredentials(t *testing.T) {
	a := &fakeScraper{name: "a"}
	db := newPoolStore(t)
	pool := NewPool([]Scraper{a}, map[string]int{"a": 10}, db, testLogger())

	got := pool.FetchPooled(context.Background(), "sale", nil, 5)
	require.Empty(t, got)
	require.Zero(t, a.calls)
}

func TestFetchPooledDeduplicatesUnion(t *testing.T) {
	shared := record.Record{ExternalID: "1", Permalink: "https://instagram.com/p/1", Caption: "shared"}
	a := &fakeScraper{name: "a", creds: true, records: []record.Record{shared}}
	b := &fakeScraper{name: "b", creds: true, records: []record.Record{shared}}
	db := newPoolStore(t)
	pool := NewPool([]Scraper{a, b}, map[string]int{"a": 10, "b": 10}, db, testLogger())

	got := pool.FetchPooled(context.Background(), "sale", nil, 2)
	require.Len(t, got, 1)
}

func TestFetchPooledErrorStillCountsAgainstBudget(t *testing.T) {
	a := &fakeScraper{name: "a", creds: true, err: errors.New("backend down")}
	db := newPoolStore(t)
	pool := NewPool([]Scraper{a}, map[string]int{"a": 3}, db, testLogger())

	got := pool.FetchPooled(context.Background(), "sale", nil, 10)
	require.Empty(t, got)
	require.Equal(t, 3, a.calls)

	usage, err := db.GetScraperUsage(context.Background(), "a")
	require.NoError(t, err)
	require.Equal(t, 3, usage.CallsMade)
}

func TestIsEnabledIgnoresStaleMonth(t *testing.T) {
	a := &fakeScraper{name: "a", creds: true}
	db := newPoolStore(t)
	pool := NewPool([]Scraper{a}, map[string]int{"a": 1}, db, testLogger())

	// A counter left over from an earlier month does not block the backend.
	require.NoError(t, db.SetScraperUsage(context.Background(), store.ScraperUsage{
		Provider:  "a",
		Month:     "2020-01",
		CallsMade: 99,
	}))
	require.True(t, pool.IsEnabled(context.Background(), a))
}
