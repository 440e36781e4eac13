package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/harvestledger/internal/domain/models"
	"github.com/mamadbah2/harvestledger/internal/repository/remote"
	"github.com/mamadbah2/harvestledger/internal/repository/store"
)

type fakeSink struct {
	appends     [][][]any
	snapshot    [][]any
	appendErr   error
	snapshotErr error
	block       chan struct{} // when set, Append waits until closed
	started     chan struct{}
}

func (f *fakeSink) Append(ctx context.Context, rows [][]any) error {
	if f.started != nil {
		close(f.started)
		f.started = nil
	}
	if f.block != nil {
		<-f.block
	}
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appends = append(f.appends, rows)
	return nil
}

func (f *fakeSink) Snapshot(ctx context.Context) ([][]any, error) {
	if f.snapshotErr != nil {
		return nil, f.snapshotErr
	}
	return f.snapshot, nil
}

func unsyncedEntry(id string) models.HarvestEntry {
	return models.HarvestEntry{
		ID: id, FarmName: "Farm", SessionName: "S1", Tank: "Tank 1",
		Count: 10, Weight: 5, CrateCount: 1, CrateWeight: 1.8,
		Team: "Team A", Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestPushEmptySetIsSilentSuccess(t *testing.T) {
	st := store.NewMemoryStore()
	sink := &fakeSink{}
	svc := NewService(st, sink, nil)

	result, err := svc.Push(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Pushed)
	assert.Empty(t, sink.appends)

	// Even with no sink at all, an empty push succeeds without a config error.
	svc = NewService(st, nil, nil)
	_, err = svc.Push(context.Background())
	require.NoError(t, err)
}

func TestPushFailsFastWithoutSink(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.Put(context.Background(), unsyncedEntry("id_1")))

	svc := NewService(st, nil, nil)
	_, err := svc.Push(context.Background())
	assert.ErrorIs(t, err, ErrSinkNotConfigured)
}

func TestPushRejectsMalformedSheetURL(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, st.Put(ctx, unsyncedEntry("id_1")))

	settings := models.DefaultSettings()
	settings.GoogleSheetURL = "https://example.com/not-a-script"
	require.NoError(t, st.SaveSettings(ctx, settings))

	sink := &fakeSink{}
	svc := NewService(st, sink, nil)

	// The settings URL takes precedence and its shape is validated before
	// any network call, even though a fixed sink exists.
	_, err := svc.Push(ctx)
	assert.ErrorIs(t, err, ErrSinkNotConfigured)
	assert.Empty(t, sink.appends)
}

func TestPushMarksBatchSyncedAndIsIdempotent(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, st.PutMany(ctx, []models.HarvestEntry{unsyncedEntry("id_1"), unsyncedEntry("id_2")}))

	sink := &fakeSink{}
	svc := NewService(st, sink, nil)

	result, err := svc.Push(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Pushed)
	require.Len(t, sink.appends, 1)
	assert.Len(t, sink.appends[0], 2)

	all, err := st.All(ctx)
	require.NoError(t, err)
	for _, e := range all {
		assert.True(t, e.Synced)
	}

	// Second push with nothing new: no-op, no second network call.
	result, err = svc.Push(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Pushed)
	assert.Len(t, sink.appends, 1)
}

func TestPushTransportFailureLeavesBatchUnsynced(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, st.Put(ctx, unsyncedEntry("id_1")))

	sink := &fakeSink{appendErr: errors.New("connection reset")}
	svc := NewService(st, sink, nil)

	_, err := svc.Push(ctx)
	assert.ErrorIs(t, err, ErrPushFailed)

	all, err := st.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Synced)
}

func TestRecallSingleRowSnapshot(t *testing.T) {
	st := store.NewMemoryStore()
	sink := &fakeSink{snapshot: [][]any{
		{"header"},
		{"id_1", "Tank 1", "10", "5.0", "1", "1.8", "Team A", "2024-01-01T00:00:00Z", "Farm", "S1"},
	}}
	svc := NewService(st, sink, nil)

	result, err := svc.Recall(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Zero(t, result.Skipped)

	all, err := st.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)

	e := all[0]
	assert.Equal(t, "id_1", e.ID)
	assert.True(t, e.Synced)
	assert.Equal(t, "Tank 1", e.Tank)
	assert.Equal(t, 10, e.Count)
	assert.InDelta(t, 5.0, e.Weight, 1e-9)
	assert.Equal(t, "Farm", e.FarmName)
	assert.Equal(t, "S1", e.SessionName)
}

func TestRecallNeverDeletesLocalEntries(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	local := unsyncedEntry("id_local_only")
	require.NoError(t, st.Put(ctx, local))

	sink := &fakeSink{snapshot: [][]any{
		{"header"},
		{"id_remote", "Tank 2", "20", "6.0", "2", "1.8", "Team B", "2024-01-02T00:00:00Z", "Farm", "S1"},
	}}
	svc := NewService(st, sink, nil)

	_, err := svc.Recall(ctx)
	require.NoError(t, err)

	all, err := st.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	byID := map[string]models.HarvestEntry{}
	for _, e := range all {
		byID[e.ID] = e
	}
	// The local-only entry survives untouched, unsynced flag included.
	assert.Equal(t, local, byID["id_local_only"])
	assert.True(t, byID["id_remote"].Synced)
}

func TestRecallOverwritesMatchingIDs(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	stale := unsyncedEntry("id_1")
	stale.Weight = 99
	require.NoError(t, st.Put(ctx, stale))

	sink := &fakeSink{snapshot: [][]any{
		{"header"},
		{"id_1", "Tank 1", "10", "5.0", "1", "1.8", "Team A", "2024-01-01T00:00:00Z", "Farm", "S1"},
	}}
	svc := NewService(st, sink, nil)

	_, err := svc.Recall(ctx)
	require.NoError(t, err)

	all, err := st.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.InDelta(t, 5.0, all[0].Weight, 1e-9)
	assert.True(t, all[0].Synced)
}

func TestRecallSkipsInvalidRows(t *testing.T) {
	st := store.NewMemoryStore()
	sink := &fakeSink{snapshot: [][]any{
		{"header"},
		{"no-prefix", "Tank 1", "10", "5.0", "1", "1.8", "T", "2024-01-01T00:00:00Z", "Farm", "S1"},
		{"id_short_row", "Tank 1"},
		{"id_ok", "Tank 1", "10", "5.0", "1", "1.8", "T", "2024-01-01T00:00:00Z", "Farm", "S1"},
	}}
	svc := NewService(st, sink, nil)

	result, err := svc.Recall(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.Skipped)
}

func TestRecallIsIdempotent(t *testing.T) {
	st := store.NewMemoryStore()
	sink := &fakeSink{snapshot: [][]any{
		{"header"},
		{"id_1", "Tank 1", "10", "5.0", "1", "1.8", "Team A", "2024-01-01T00:00:00Z", "Farm", "S1"},
	}}
	svc := NewService(st, sink, nil)

	ctx := context.Background()
	_, err := svc.Recall(ctx)
	require.NoError(t, err)
	first, err := st.All(ctx)
	require.NoError(t, err)

	_, err = svc.Recall(ctx)
	require.NoError(t, err)
	second, err := st.All(ctx)
	require.NoError(t, err)

	assert.ElementsMatch(t, first, second)
}

func TestRecallBadSnapshotImportsNothing(t *testing.T) {
	st := store.NewMemoryStore()
	sink := &fakeSink{snapshotErr: remote.ErrBadSnapshot}
	svc := NewService(st, sink, nil)

	_, err := svc.Recall(context.Background())
	assert.ErrorIs(t, err, ErrRecallFailed)

	count, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAutoSyncCollapsesOverlappingAttempts(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, st.Put(ctx, unsyncedEntry("id_1")))

	started := make(chan struct{})
	block := make(chan struct{})
	sink := &fakeSink{block: block, started: started}
	svc := NewService(st, sink, nil)
	svc.online.Store(true)

	done := make(chan struct{})
	go func() {
		svc.AutoSync(ctx)
		close(done)
	}()
	<-started

	// A second attempt while the first holds the guard is a no-op.
	svc.AutoSync(ctx)
	assert.True(t, svc.syncing.Load())

	close(block)
	<-done
	assert.False(t, svc.syncing.Load())
	assert.Len(t, sink.appends, 1)
}

func TestAutoSyncSkipsWhileOffline(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.Put(context.Background(), unsyncedEntry("id_1")))

	sink := &fakeSink{}
	svc := NewService(st, sink, nil)

	svc.AutoSync(context.Background())
	assert.Empty(t, sink.appends)
}

func TestSettingsURLBuildsScriptSink(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, st.Put(ctx, unsyncedEntry("id_1")))

	settings := models.DefaultSettings()
	settings.GoogleSheetURL = "https://script.google.com/macros/s/ABC123/exec"
	require.NoError(t, st.SaveSettings(ctx, settings))

	fromSettings := &fakeSink{}
	fixed := &fakeSink{}
	svc := NewService(st, fixed, nil)
	svc.newScript = func(url string) remote.Sink {
		assert.Equal(t, settings.GoogleSheetURL, url)
		return fromSettings
	}

	_, err := svc.Push(ctx)
	require.NoError(t, err)
	assert.Len(t, fromSettings.appends, 1)
	assert.Empty(t, fixed.appends)
}
