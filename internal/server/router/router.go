package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/harvestledger/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(ledgerHandler *handlers.LedgerHandler, syncHandler *handlers.SyncHandler, exportHandler *handlers.ExportHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	api := r.Group("/api")
	{
		api.POST("/entries", ledgerHandler.CreateEntry)
		api.GET("/entries", ledgerHandler.ListEntries)
		api.PUT("/entries/:id", ledgerHandler.UpdateEntry)
		api.DELETE("/entries/:id", ledgerHandler.DeleteEntry)
		api.POST("/entries/delete", ledgerHandler.DeleteEntries)

		api.GET("/summary", ledgerHandler.Summary)
		api.GET("/running/:tank", ledgerHandler.RunningTotals)

		api.GET("/settings", ledgerHandler.GetSettings)
		api.PUT("/settings", ledgerHandler.SaveSettings)
		api.POST("/settings/count", ledgerHandler.QuickSetCount)

		api.POST("/sync/push", syncHandler.Push)
		api.POST("/sync/recall", syncHandler.Recall)
		api.POST("/connectivity", syncHandler.Connectivity)

		api.GET("/export/csv", exportHandler.CSV)
		api.GET("/report", exportHandler.Report)

		api.POST("/reset", ledgerHandler.Reset)
		api.GET("/health", ledgerHandler.Health)
	}

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
