package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/harvestledger/internal/domain/models"
	"github.com/mamadbah2/harvestledger/internal/repository/remote"
)

// ErrSinkNotConfigured indicates sync was attempted with no remote endpoint,
// or with a sheet URL that is not an Apps Script web-app shape. No network
// call is made when it is returned.
var ErrSinkNotConfigured = errors.New("no valid sheet endpoint configured")

// ErrPushFailed wraps transport failures while pushing the unsynced batch.
var ErrPushFailed = errors.New("push failed")

// ErrRecallFailed wraps failures while fetching or importing the remote
// snapshot.
var ErrRecallFailed = errors.New("recall failed")

// Store is the slice of the record store the reconciler needs.
type Store interface {
	All(ctx context.Context) ([]models.HarvestEntry, error)
	PutMany(ctx context.Context, entries []models.HarvestEntry) error
	Settings(ctx context.Context) (models.HarvestSettings, error)
}

// PushResult reports the outcome of one push.
type PushResult struct {
	Pushed int `json:"pushed"`
}

// RecallResult reports the outcome of one recall.
type RecallResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Service reconciles the local ledger with the remote sheet.
//
// Push is optimistic-ack over a fire-and-forget transport: a send that does
// not error counts as delivered and the batch is marked synced locally. A
// crash between send and ack leaves the batch unsynced and it is pushed
// again, so the remote may hold duplicate appends; recall dedups by id.
//
// Automatic attempts are collapsed through a single-slot guard. Manual Push
// deliberately bypasses it; two racing pushes re-read the unsynced filter so
// the window between read and ack-write is the only overlap, and it is an
// accepted limitation rather than something to lock away.
type Service struct {
	store     Store
	fixedSink remote.Sink
	logger    *zap.Logger

	online  atomic.Bool
	syncing atomic.Bool

	mu         sync.Mutex
	scriptURL  string
	scriptSink remote.Sink
	newScript  func(url string) remote.Sink
}

// NewService wires a sync service. fixedSink is the config-provided sink
// (Sheets API or script client) and may be nil; a sheet URL stored in
// settings takes precedence when present.
func NewService(st Store, fixedSink remote.Sink, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     st,
		fixedSink: fixedSink,
		logger:    logger,
		newScript: func(url string) remote.Sink {
			return remote.NewScriptClient(url, logger.Named("sink.script"))
		},
	}
}

// resolveSink picks the sink for this attempt: the settings sheet URL when
// set (validated, never called when malformed), else the wired sink.
func (s *Service) resolveSink(ctx context.Context) (remote.Sink, error) {
	settings, err := s.store.Settings(ctx)
	if err == nil && settings.GoogleSheetURL != "" {
		if !remote.IsScriptEndpoint(settings.GoogleSheetURL) {
			return nil, fmt.Errorf("%w: %q is not a script endpoint", ErrSinkNotConfigured, settings.GoogleSheetURL)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.scriptURL != settings.GoogleSheetURL {
			s.scriptURL = settings.GoogleSheetURL
			s.scriptSink = s.newScript(settings.GoogleSheetURL)
		}
		return s.scriptSink, nil
	}

	if s.fixedSink != nil {
		return s.fixedSink, nil
	}
	return nil, ErrSinkNotConfigured
}

// Push sends every unsynced entry as one batch and marks the batch synced on
// send success. An empty unsynced set is a successful no-op with no network
// call, configured sink or not.
func (s *Service) Push(ctx context.Context) (PushResult, error) {
	entries, err := s.store.All(ctx)
	if err != nil {
		return PushResult{}, fmt.Errorf("read ledger for push: %w", err)
	}

	var unsynced []models.HarvestEntry
	for _, e := range entries {
		if !e.Synced {
			unsynced = append(unsynced, e)
		}
	}
	if len(unsynced) == 0 {
		return PushResult{}, nil
	}

	sink, err := s.resolveSink(ctx)
	if err != nil {
		return PushResult{}, err
	}

	rows := make([][]any, 0, len(unsynced))
	for _, e := range unsynced {
		rows = append(rows, remote.EntryToRow(e))
	}

	if err := sink.Append(ctx, rows); err != nil {
		return PushResult{}, fmt.Errorf("%w: %v", ErrPushFailed, err)
	}

	// Optimistic ack: the send did not error, so the whole batch counts as
	// delivered and is acked in one local write.
	for i := range unsynced {
		unsynced[i].Synced = true
	}
	if err := s.store.PutMany(ctx, unsynced); err != nil {
		return PushResult{}, fmt.Errorf("mark %d entries synced: %w", len(unsynced), err)
	}

	s.logger.Info("pushed unsynced entries", zap.Int("entries", len(unsynced)))
	return PushResult{Pushed: len(unsynced)}, nil
}

// Recall pulls the full remote snapshot and merges it by id. Matching local
// entries are fully overwritten with Synced forced true; local ids absent
// from the snapshot are never deleted. Rows failing validation are skipped
// and counted, a response that is not tabular imports nothing.
func (s *Service) Recall(ctx context.Context) (RecallResult, error) {
	sink, err := s.resolveSink(ctx)
	if err != nil {
		return RecallResult{}, err
	}

	rows, err := sink.Snapshot(ctx)
	if err != nil {
		return RecallResult{}, fmt.Errorf("%w: %w", ErrRecallFailed, err)
	}
	if len(rows) == 0 {
		return RecallResult{}, nil
	}

	var accepted []models.HarvestEntry
	var skipped int
	for _, row := range rows[1:] { // row 0 is the header
		entry, err := remote.RowToEntry(row)
		if err != nil {
			skipped++
			s.logger.Debug("snapshot row skipped", zap.Error(err))
			continue
		}
		entry.Synced = true // remote is trusted as already synced
		accepted = append(accepted, entry)
	}

	if len(accepted) > 0 {
		if err := s.store.PutMany(ctx, accepted); err != nil {
			return RecallResult{}, fmt.Errorf("import %d recalled entries: %w", len(accepted), err)
		}
	}

	s.logger.Info("recall merged remote snapshot",
		zap.Int("imported", len(accepted)),
		zap.Int("skipped", skipped))
	return RecallResult{Imported: len(accepted), Skipped: skipped}, nil
}

// SetOnline feeds the connectivity signal. A transition to online kicks an
// automatic push.
func (s *Service) SetOnline(online bool) {
	was := s.online.Swap(online)
	if online && !was {
		go s.AutoSync(context.Background())
	}
}

// Online reports the last connectivity signal.
func (s *Service) Online() bool {
	return s.online.Load()
}

// Kick requests an opportunistic push, typically after a write left unsynced
// entries behind. It is a no-op while offline.
func (s *Service) Kick() {
	if s.online.Load() {
		go s.AutoSync(context.Background())
	}
}

// AutoSync runs one guarded automatic push. Overlapping attempts collapse
// into no-ops; the guard is cleared on every outcome.
func (s *Service) AutoSync(ctx context.Context) {
	if !s.online.Load() {
		return
	}
	if !s.syncing.CompareAndSwap(false, true) {
		return
	}
	defer s.syncing.Store(false)

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	result, err := s.Push(ctx)
	switch {
	case errors.Is(err, ErrSinkNotConfigured):
		s.logger.Debug("auto-sync skipped, no sink configured")
	case err != nil:
		s.logger.Warn("auto-sync push failed", zap.Error(err))
	case result.Pushed > 0:
		s.logger.Info("auto-sync pushed entries", zap.Int("entries", result.Pushed))
	}
}
