package store

import (
	"context"
	"errors"

	"github.com/mamadbah2/harvestledger/internal/domain/models"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrResetFailed indicates the nuclear reset could not complete. Existing
// data is left intact when it is returned.
var ErrResetFailed = errors.New("reset failed")

// Store is the durable ledger underneath everything else: harvest entries
// keyed by id plus the single settings document. Writes are whole-record or
// whole-batch replaces, never partial patches; callers read-modify-write.
type Store interface {
	// Put inserts or replaces one entry by id.
	Put(ctx context.Context, entry models.HarvestEntry) error
	// PutMany inserts or replaces a batch of entries in one atomic write.
	PutMany(ctx context.Context, entries []models.HarvestEntry) error
	// Delete removes one entry by id. Missing ids are not an error.
	Delete(ctx context.Context, id string) error
	// DeleteMany removes a set of entries by id in one write.
	DeleteMany(ctx context.Context, ids []string) error
	// All returns every entry in unspecified order.
	All(ctx context.Context) ([]models.HarvestEntry, error)
	// Count returns the number of stored entries.
	Count(ctx context.Context) (int64, error)

	// Settings returns the settings document, or ErrNotFound before the
	// first save.
	Settings(ctx context.Context) (models.HarvestSettings, error)
	// SaveSettings replaces the settings document.
	SaveSettings(ctx context.Context, s models.HarvestSettings) error

	// Reset empties both tables. All-or-nothing: on failure it returns an
	// error wrapping ErrResetFailed and leaves data intact.
	Reset(ctx context.Context) error

	// RequestDurability asks the backend for durable persistence and reports
	// whether it was granted. Advisory only; a refusal is not an error.
	RequestDurability(ctx context.Context) (bool, error)
	// Durable reports the last known persistence grant state.
	Durable() bool
}
