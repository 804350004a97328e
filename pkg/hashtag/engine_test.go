package hashtag

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/1webtutor/social-content-aggregator/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	db, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestExtract(t *testing.T) {
	tags := Extract("Loving the #Summer vibes #summer #SunSet", nil)
	require.Equal(t, []string{"summer", "sunset"}, tags)
}

func TestExtractBlacklist(t *testing.T) {
	tags := Extract("big #sale this #weekend", []string{"sale"})
	require.Equal(t, []string{"weekend"}, tags)

	require.Empty(t, Extract("just a #sale", []string{"sale"}))
}

func TestExtractDropsPromotionalTags(t *testing.T) {
	tags := Extract("#official #brandteam #adminpost #legit", nil)
	require.Equal(t, []string{"legit"}, tags)
}

func TestParseBlacklist(t *testing.T) {
	require.Equal(t, []string{"sale", "promo"}, ParseBlacklist("Sale, promo"))
	require.Empty(t, ParseBlacklist(" , ,"))
	require.Empty(t, ParseBlacklist(""))
}

func TestRecordRunningMean(t *testing.T) {
	db := newTestStore(t)
	engine := NewEngine(db)
	ctx := context.Background()

	values := []int{10, 20, 60}
	for _, v := range values {
		require.NoError(t, engine.Record(ctx, []string{"sunset"}, v))
	}

	stat, err := db.GetHashtagStat(ctx, "sunset")
	require.NoError(t, err)
	require.NotNil(t, stat)
	require.Equal(t, 3, stat.UsageCount)
	require.InDelta(t, 30.0, stat.AvgEngagement, 1e-9)
	require.False(t, stat.LastSeen.IsZero())
}

func TestTopOrdering(t *testing.T) {
	db := newTestStore(t)
	engine := NewEngine(db)
	ctx := context.Background()

	require.NoError(t, engine.Record(ctx, []string{"low"}, 5))
	require.NoError(t, engine.Record(ctx, []string{"high"}, 100))
	require.NoError(t, engine.Record(ctx, []string{"mid"}, 50))

	tags, err := engine.Top(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"high", "mid"}, tags)
}

func TestTopClampsN(t *testing.T) {
	db := newTestStore(t)
	engine := NewEngine(db)
	ctx := context.Background()

	require.NoError(t, engine.Record(ctx, []string{"a", "b", "c"}, 10))

	tags, err := engine.Top(ctx, 0)
	require.NoError(t, err)
	require.Len(t, tags, 1)

	tags, err = engine.Top(ctx, 100)
	require.NoError(t, err)
	require.Len(t, tags, 3)
}
