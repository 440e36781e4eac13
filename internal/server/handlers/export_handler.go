package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/harvestledger/internal/repository/remote"
	"github.com/mamadbah2/harvestledger/internal/service/ledger"
)

// ExportHandler produces the CSV and report artifacts. Both consume the
// aggregation output and the raw entry list only; no computation happens here.
type ExportHandler struct {
	svc    *ledger.Service
	logger *zap.Logger
}

// NewExportHandler constructs the HTTP handler adapter.
func NewExportHandler(svc *ledger.Service, logger *zap.Logger) *ExportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportHandler{svc: svc, logger: logger}
}

// CSV streams the active session's entries in the fixed column order shared
// with the remote sheet.
func (h *ExportHandler) CSV(c *gin.Context) {
	entries := h.svc.SessionEntries(c.Request.Context())

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="harvest.csv"`)

	w := csv.NewWriter(c.Writer)
	if err := w.Write(remote.HeaderColumns); err != nil {
		h.logger.Error("csv write failed", zap.Error(err))
		return
	}
	for _, e := range entries {
		record := []string{
			e.ID,
			e.Tank,
			fmt.Sprint(e.Count),
			fmt.Sprint(e.Weight),
			fmt.Sprint(e.CrateCount),
			fmt.Sprint(e.CrateWeight),
			e.Team,
			e.Timestamp.UTC().Format(time.RFC3339),
			e.FarmName,
			e.SessionName,
		}
		if err := w.Write(record); err != nil {
			h.logger.Error("csv write failed", zap.Error(err))
			return
		}
	}
	w.Flush()
}

// Report returns the session report: summary statistics, the per-tank table
// and the full transaction ledger.
func (h *ExportHandler) Report(c *gin.Context) {
	ctx := c.Request.Context()

	entries := h.svc.SessionEntries(ctx)
	summaries := h.svc.Summary(ctx)

	var totalGross, totalNet float64
	var totalCrates int
	for _, s := range summaries {
		totalGross += s.TotalWeight
		totalNet += s.AbsoluteWeight
		totalCrates += s.CrateCount
	}

	revenue, err := h.svc.SessionRevenue(ctx)
	if err != nil {
		h.logger.Warn("revenue computation failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"generatedAt": time.Now().UTC(),
		"stats": gin.H{
			"entries":     len(entries),
			"tanks":       len(summaries),
			"crates":      totalCrates,
			"totalWeight": totalGross,
			"netWeight":   totalNet,
			"revenue":     revenue,
		},
		"tanks":  summaries,
		"ledger": entries,
	})
}
