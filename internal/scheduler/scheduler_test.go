package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/1webtutor/social-content-aggregator/pkg/aggregate"
)

type fakeSyncer struct {
	err   error
	calls int
}

func (f *fakeSyncer) SyncAll(ctx context.Context, forceRefresh bool) error {
	f.calls++
	return f.err
}

type fakeRunner struct {
	calls int
}

func (f *fakeRunner) RunDue(ctx context.Context) error {
	f.calls++
	return nil
}

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func TestRunExecutesInitialPassThenStops(t *testing.T) {
	syncer := &fakeSyncer{}
	runner := &fakeRunner{}
	sched := New(syncer, runner, time.Hour, time.Hour, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sched.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, syncer.calls)
	require.Equal(t, 1, runner.calls)
}

func TestRunSyncToleratesRateLimit(t *testing.T) {
	syncer := &fakeSyncer{err: aggregate.ErrRateLimited}
	sched := New(syncer, nil, time.Hour, time.Hour, testLogger())

	// A throttled tick is not an error and a nil keyword runner is skipped.
	sched.runSync(context.Background())
	sched.runKeywords(context.Background())
	require.Equal(t, 1, syncer.calls)
}

func TestRunSyncLogsFailures(t *testing.T) {
	syncer := &fakeSyncer{err: errors.New("boom")}
	sched := New(syncer, nil, time.Hour, time.Hour, testLogger())

	sched.runSync(context.Background())
	require.Equal(t, 1, syncer.calls)
}

func TestNewDefaultsIntervals(t *testing.T) {
	sched := New(&fakeSyncer{}, nil, 0, 0, testLogger())
	require.Equal(t, time.Hour, sched.syncInt)
	require.Equal(t, 30*time.Minute, sched.keywordInt)
}
