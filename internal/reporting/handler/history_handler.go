package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/remote-account-ledger/internal/domain/ledger"
)

// HistoryHandler handles HTTP requests for transaction history queries
type HistoryHandler struct {
	archive ledger.Archive
	logger  *slog.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(logger *slog.Logger, archive ledger.Archive) *HistoryHandler {
	return &HistoryHandler{
		archive: archive,
		logger:  logger,
	}
}

// GetByRecordID retrieves a single transaction record by its ID, returns 404 if not found
func (h *HistoryHandler) GetByRecordID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid record ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid record ID")
		return
	}

	record, err := h.archive.GetByRecordID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrRecordNotFound{}) {
			RespondNotFound(c, "Record not found")
			return
		}
		h.logger.Error("Failed to get record", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapRecordToResponse(record))
}

// GetByAccountNumber retrieves paginated transaction history for an account,
// newest first
func (h *HistoryHandler) GetByAccountNumber(c *gin.Context) {
	accountNumber := c.Param("number")
	if accountNumber == "" {
		RespondBadRequest(c, "Account number is required")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	total, err := h.archive.CountByAccountNumber(c.Request.Context(), accountNumber)
	if err != nil {
		h.logger.Error("Failed to count records", "account_number", accountNumber, "error", err)
		RespondInternalError(c)
		return
	}

	offset := (pagination.Page - 1) * pagination.PerPage
	records, err := h.archive.GetByAccountNumber(c.Request.Context(), accountNumber, pagination.PerPage, offset)
	if err != nil {
		h.logger.Error("Failed to get records", "account_number", accountNumber, "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]RecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, mapRecordToResponse(record))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, pagination.Page, pagination.PerPage, int(total))
}

// mapRecordToResponse maps a transaction record to a response DTO
func mapRecordToResponse(record *ledger.Record) RecordResponse {
	return RecordResponse{
		RecordID:      record.RecordID.String(),
		AccountNumber: record.AccountNumber,
		Kind:          string(record.Kind),
		Amount:        record.Amount,
		CorrelationID: record.CorrelationID,
		CreatedAt:     record.CreatedAt.Format(time.RFC3339),
	}
}
