package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/harvestledger/internal/domain/models"
	"github.com/mamadbah2/harvestledger/internal/repository/store"
)

// ErrInvalidWeight indicates the measured weight was zero or negative.
var ErrInvalidWeight = errors.New("weight must be positive")

// ErrInvalidCrateCount indicates a crate count other than 1 or 2.
var ErrInvalidCrateCount = errors.New("crate count must be 1 or 2")

// NewEntryInput is the capture-flow payload. Everything not present is
// stamped from the current settings.
type NewEntryInput struct {
	Weight     float64 `json:"weight" binding:"required"`
	CrateCount int     `json:"crateCount"`
}

// Service owns entry lifecycle, the settings document and retrospective
// count propagation on top of the record store.
type Service struct {
	store      store.Store
	logger     *zap.Logger
	now        func() time.Time
	onUnsynced func()
}

// NewService wires a ledger service instance.
func NewService(st store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
}

// OnUnsynced registers a hook fired after any write that leaves unsynced
// entries behind. The sync service uses it for opportunistic pushes.
func (s *Service) OnUnsynced(fn func()) {
	s.onUnsynced = fn
}

func (s *Service) notifyUnsynced() {
	if s.onUnsynced != nil {
		s.onUnsynced()
	}
}

// CreateEntry validates the measurement, stamps it with the active settings
// context and persists it.
func (s *Service) CreateEntry(ctx context.Context, input NewEntryInput) (models.HarvestEntry, error) {
	if input.Weight <= 0 {
		return models.HarvestEntry{}, ErrInvalidWeight
	}

	crates := input.CrateCount
	if crates == 0 {
		crates = 1
	}
	if crates != 1 && crates != 2 {
		return models.HarvestEntry{}, ErrInvalidCrateCount
	}

	settings, err := s.Settings(ctx)
	if err != nil {
		return models.HarvestEntry{}, err
	}

	entry := models.HarvestEntry{
		ID:          models.NewEntryID(),
		FarmName:    settings.FarmName,
		SessionName: settings.SessionName,
		Tank:        settings.ActiveTank,
		Count:       settings.ShrimpCount,
		Weight:      input.Weight,
		CrateCount:  crates,
		CrateWeight: settings.CrateWeight,
		Team:        settings.TeamName,
		Timestamp:   s.now().UTC(),
		Synced:      false,
	}

	if err := s.store.Put(ctx, entry); err != nil {
		return models.HarvestEntry{}, fmt.Errorf("persist entry: %w", err)
	}

	s.logger.Debug("entry recorded",
		zap.String("id", entry.ID),
		zap.String("tank", entry.Tank),
		zap.Float64("weight", entry.Weight))
	s.notifyUnsynced()
	return entry, nil
}

// UpdateEntry replaces the mutable fields of an existing entry. The id and
// creation timestamp are preserved and the entry is marked unsynced again.
func (s *Service) UpdateEntry(ctx context.Context, entry models.HarvestEntry) (models.HarvestEntry, error) {
	if entry.Weight <= 0 {
		return models.HarvestEntry{}, ErrInvalidWeight
	}

	existing, err := s.findEntry(ctx, entry.ID)
	if err != nil {
		return models.HarvestEntry{}, err
	}

	entry.Timestamp = existing.Timestamp
	entry.Synced = false

	if err := s.store.Put(ctx, entry); err != nil {
		return models.HarvestEntry{}, fmt.Errorf("persist entry %s: %w", entry.ID, err)
	}

	s.notifyUnsynced()
	return entry, nil
}

// DeleteEntry removes one entry.
func (s *Service) DeleteEntry(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// DeleteEntries removes a batch of entries in one write.
func (s *Service) DeleteEntries(ctx context.Context, ids []string) error {
	return s.store.DeleteMany(ctx, ids)
}

// Entries returns every stored entry. A store read failure degrades to an
// empty dataset so the application stays usable offline; the failure is
// logged, not propagated.
func (s *Service) Entries(ctx context.Context) []models.HarvestEntry {
	entries, err := s.store.All(ctx)
	if err != nil {
		s.logger.Warn("entry read failed, treating ledger as empty", zap.Error(err))
		return nil
	}
	return entries
}

// SessionEntries returns the entries of the active (farm, session) partition,
// degraded the same way as Entries.
func (s *Service) SessionEntries(ctx context.Context) []models.HarvestEntry {
	settings, err := s.Settings(ctx)
	if err != nil {
		s.logger.Warn("settings read failed", zap.Error(err))
		return nil
	}

	var out []models.HarvestEntry
	for _, e := range s.Entries(ctx) {
		if e.InSession(settings.FarmName, settings.SessionName) {
			out = append(out, e)
		}
	}
	return out
}

// EntryCount returns the stored entry count.
func (s *Service) EntryCount(ctx context.Context) (int64, error) {
	return s.store.Count(ctx)
}

// Settings returns the current settings, falling back to defaults before the
// first save.
func (s *Service) Settings(ctx context.Context) (models.HarvestSettings, error) {
	settings, err := s.store.Settings(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		return models.HarvestSettings{}, fmt.Errorf("read settings: %w", err)
	}
	return settings, nil
}

// SaveSettings persists the full settings document (the settings-panel path).
// It remembers the active tank's count in TankCounts and, when that count
// changed, retroactively propagates it to the active session's entries on
// that tank.
func (s *Service) SaveSettings(ctx context.Context, settings models.HarvestSettings) (int, error) {
	if settings.TankCounts == nil {
		settings.TankCounts = map[string]int{}
	}
	if settings.TankPrices == nil {
		settings.TankPrices = map[string]string{}
	}
	settings.TankCounts[settings.ActiveTank] = settings.ShrimpCount

	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return 0, fmt.Errorf("save settings: %w", err)
	}

	changed, err := s.propagateCount(ctx, settings.FarmName, settings.SessionName, settings.ActiveTank, settings.ShrimpCount)
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// QuickSetCount is the inline quick-edit path: it updates the active tank's
// count in settings and propagates it with the same semantics as
// SaveSettings, without touching the rest of the document.
func (s *Service) QuickSetCount(ctx context.Context, count int) (int, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return 0, err
	}

	settings.ShrimpCount = count
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return 0, fmt.Errorf("save settings: %w", err)
	}

	return s.propagateCount(ctx, settings.FarmName, settings.SessionName, settings.ActiveTank, count)
}

// propagateCount applies a count change to every entry of the given
// (farm, session, tank) partition whose stored count differs, marking each
// one unsynced so it re-syncs. Only the changed subset is written back, in a
// single batch, keeping write volume proportional to the change and not to
// ledger size. Entries outside the partition are untouched.
func (s *Service) propagateCount(ctx context.Context, farm, session, tank string, count int) (int, error) {
	entries, err := s.store.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("scan entries for count propagation: %w", err)
	}

	var changed []models.HarvestEntry
	for _, e := range entries {
		if !e.InSession(farm, session) || e.Tank != tank || e.Count == count {
			continue
		}
		e.Count = count
		e.Synced = false
		changed = append(changed, e)
	}

	if len(changed) == 0 {
		return 0, nil
	}

	if err := s.store.PutMany(ctx, changed); err != nil {
		return 0, fmt.Errorf("apply count change to %d entries: %w", len(changed), err)
	}

	s.logger.Info("count propagated retroactively",
		zap.String("tank", tank),
		zap.Int("count", count),
		zap.Int("entries", len(changed)))
	s.notifyUnsynced()
	return len(changed), nil
}

// Reset performs the nuclear reset: both tables emptied, all-or-nothing.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		s.logger.Error("reset failed", zap.Error(err))
		return err
	}
	s.logger.Info("ledger reset")
	return nil
}

// RequestDurability forwards the advisory persistence request to the store.
func (s *Service) RequestDurability(ctx context.Context) (bool, error) {
	return s.store.RequestDurability(ctx)
}

// Durable reports the store's last known persistence grant state.
func (s *Service) Durable() bool {
	return s.store.Durable()
}

// Summary aggregates the active session's entries per tank.
func (s *Service) Summary(ctx context.Context) []models.TankSummary {
	return SummarizeByTank(s.SessionEntries(ctx))
}

// TankRunningTotals computes the cumulative progress map for one tank of the
// active session.
func (s *Service) TankRunningTotals(ctx context.Context, tank string) map[string]models.RunningTotal {
	var tankEntries []models.HarvestEntry
	for _, e := range s.SessionEntries(ctx) {
		if e.Tank == tank {
			tankEntries = append(tankEntries, e)
		}
	}
	return RunningTotals(tankEntries)
}

// SessionRevenue values the active session's summaries with the configured
// tank prices.
func (s *Service) SessionRevenue(ctx context.Context) (float64, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return 0, err
	}
	return Revenue(s.Summary(ctx), settings.TankPrices), nil
}

func (s *Service) findEntry(ctx context.Context, id string) (models.HarvestEntry, error) {
	entries, err := s.store.All(ctx)
	if err != nil {
		return models.HarvestEntry{}, fmt.Errorf("read entries: %w", err)
	}
	for _, e := range entries {
		if e.ID == id {
			return e, nil
		}
	}
	return models.HarvestEntry{}, store.ErrNotFound
}
