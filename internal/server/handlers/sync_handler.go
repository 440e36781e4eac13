package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/harvestledger/internal/repository/remote"
	syncsvc "github.com/mamadbah2/harvestledger/internal/service/sync"
)

// SyncHandler exposes manual push/recall and the connectivity signal.
type SyncHandler struct {
	svc    *syncsvc.Service
	logger *zap.Logger
}

// NewSyncHandler constructs the HTTP handler adapter.
func NewSyncHandler(svc *syncsvc.Service, logger *zap.Logger) *SyncHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncHandler{svc: svc, logger: logger}
}

// Push sends the unsynced batch to the remote sheet. Every outcome is
// reported back verbatim; nothing is swallowed.
func (h *SyncHandler) Push(c *gin.Context) {
	result, err := h.svc.Push(c.Request.Context())
	switch {
	case errors.Is(err, syncsvc.ErrSinkNotConfigured):
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": err.Error()})
	case err != nil:
		h.logger.Warn("manual push failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, result)
	}
}

// Recall pulls the remote snapshot and merges it into the ledger.
func (h *SyncHandler) Recall(c *gin.Context) {
	result, err := h.svc.Recall(c.Request.Context())
	switch {
	case errors.Is(err, syncsvc.ErrSinkNotConfigured):
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": err.Error()})
	case errors.Is(err, remote.ErrBadSnapshot):
		c.JSON(http.StatusBadGateway, gin.H{"error": "remote data is not in the expected format"})
	case err != nil:
		h.logger.Warn("recall failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, result)
	}
}

// Connectivity feeds the online/offline signal. The engine never probes the
// network itself.
func (h *SyncHandler) Connectivity(c *gin.Context) {
	var req struct {
		Online *bool `json:"online" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid connectivity payload"})
		return
	}

	h.svc.SetOnline(*req.Online)
	c.JSON(http.StatusOK, gin.H{"online": *req.Online})
}
