package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/harvestledger/internal/domain/models"
	"github.com/mamadbah2/harvestledger/internal/repository/store"
	"github.com/mamadbah2/harvestledger/internal/service/ledger"
)

// LedgerHandler exposes entry capture, settings and aggregation over HTTP.
type LedgerHandler struct {
	svc    *ledger.Service
	logger *zap.Logger
}

// NewLedgerHandler constructs the HTTP handler adapter.
func NewLedgerHandler(svc *ledger.Service, logger *zap.Logger) *LedgerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerHandler{svc: svc, logger: logger}
}

// CreateEntry records one crate measurement under the active settings context.
func (h *LedgerHandler) CreateEntry(c *gin.Context) {
	var input ledger.NewEntryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry payload"})
		return
	}

	entry, err := h.svc.CreateEntry(c.Request.Context(), input)
	if errors.Is(err, ledger.ErrInvalidWeight) || errors.Is(err, ledger.ErrInvalidCrateCount) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("failed recording entry", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record entry"})
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// ListEntries returns every stored entry; degraded reads yield an empty list.
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	entries := h.svc.Entries(c.Request.Context())
	if entries == nil {
		entries = []models.HarvestEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// UpdateEntry rewrites an existing entry in place.
func (h *LedgerHandler) UpdateEntry(c *gin.Context) {
	var entry models.HarvestEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry payload"})
		return
	}
	entry.ID = c.Param("id")

	updated, err := h.svc.UpdateEntry(c.Request.Context(), entry)
	switch {
	case errors.Is(err, ledger.ErrInvalidWeight):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
	case err != nil:
		h.logger.Error("failed updating entry", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update entry"})
	default:
		c.JSON(http.StatusOK, updated)
	}
}

// DeleteEntry removes one entry by id.
func (h *LedgerHandler) DeleteEntry(c *gin.Context) {
	if err := h.svc.DeleteEntry(c.Request.Context(), c.Param("id")); err != nil {
		h.logger.Error("failed deleting entry", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete entry"})
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteEntries removes a batch of entries in one write.
func (h *LedgerHandler) DeleteEntries(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid delete payload"})
		return
	}

	if err := h.svc.DeleteEntries(c.Request.Context(), req.IDs); err != nil {
		h.logger.Error("failed deleting entries", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete entries"})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSettings returns the settings document, defaults included.
func (h *LedgerHandler) GetSettings(c *gin.Context) {
	settings, err := h.svc.Settings(c.Request.Context())
	if err != nil {
		h.logger.Error("failed reading settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// SaveSettings persists the full settings document and reports how many
// entries the count change touched retroactively.
func (h *LedgerHandler) SaveSettings(c *gin.Context) {
	var settings models.HarvestSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings payload"})
		return
	}

	changed, err := h.svc.SaveSettings(c.Request.Context(), settings)
	if err != nil {
		h.logger.Error("failed saving settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entriesUpdated": changed})
}

// QuickSetCount is the inline count edit for the active tank.
func (h *LedgerHandler) QuickSetCount(c *gin.Context) {
	var req struct {
		Count int `json:"count" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid count payload"})
		return
	}

	changed, err := h.svc.QuickSetCount(c.Request.Context(), req.Count)
	if err != nil {
		h.logger.Error("failed applying count change", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply count change"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entriesUpdated": changed})
}

// Summary returns per-tank summaries for the active session.
func (h *LedgerHandler) Summary(c *gin.Context) {
	summaries := h.svc.Summary(c.Request.Context())
	if summaries == nil {
		summaries = []models.TankSummary{}
	}

	revenue, err := h.svc.SessionRevenue(c.Request.Context())
	if err != nil {
		h.logger.Warn("revenue computation failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"tanks": summaries, "revenue": revenue})
}

// RunningTotals returns the cumulative progress map for one tank.
func (h *LedgerHandler) RunningTotals(c *gin.Context) {
	totals := h.svc.TankRunningTotals(c.Request.Context(), c.Param("tank"))
	c.JSON(http.StatusOK, totals)
}

// Health reports liveness plus the store's persistence grant state.
func (h *LedgerHandler) Health(c *gin.Context) {
	count, err := h.svc.EntryCount(c.Request.Context())
	if err != nil {
		h.logger.Warn("entry count failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"durable": h.svc.Durable(),
		"entries": count,
	})
}

// Reset performs the nuclear reset.
func (h *LedgerHandler) Reset(c *gin.Context) {
	if err := h.svc.Reset(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}
