package reporting

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/remote-account-ledger/internal/reporting/handler"
	"github.com/remote-account-ledger/internal/reporting/middleware"
)

// setupRouter configures API routes and middleware for the reporting service
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	historyHandler *handler.HistoryHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Per-account transaction history
		accounts := v1.Group("/accounts")
		{
			accounts.GET("/:number/records", historyHandler.GetByAccountNumber)
		}

		// Record lookup
		records := v1.Group("/records")
		{
			records.GET("/:id", historyHandler.GetByRecordID)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
