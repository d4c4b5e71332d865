package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vaibhav1874/TrueVail/internal/analysis"
	"github.com/vaibhav1874/TrueVail/internal/logger"
	"github.com/vaibhav1874/TrueVail/internal/services"
	"github.com/vaibhav1874/TrueVail/internal/utils"
)

type HistoryHandler struct {
	historyService services.HistoryServiceInterface
}

func NewHistoryHandler(historyService services.HistoryServiceInterface) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

// ListRecords returns a paginated list of past analyses
func (h *HistoryHandler) ListRecords(c *gin.Context) {
	page, perPage := utils.Pagination(c.Request.URL.Query())
	mode := c.Query("mode")
	if mode != "" {
		if _, err := analysis.ParseMode(mode); err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_MODE", err.Error())
			return
		}
	}

	records, total, err := h.historyService.ListRecords(c.Request.Context(), page, perPage, mode)
	if err != nil {
		logger.LogErrorWithStackAndCorrelation(err, logger.CorrelationIDFromContext(c.Request.Context()), map[string]interface{}{
			"operation": "list_history",
			"page":      page,
			"per_page":  perPage,
		})
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve analysis history")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records":  records,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

// GetRecord returns one past analysis
func (h *HistoryHandler) GetRecord(c *gin.Context) {
	record, err := h.historyService.GetRecord(c.Request.Context(), c.Param("id"))
	if errors.Is(err, services.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Analysis record not found")
		return
	}
	if err != nil {
		logger.LogErrorWithStackAndCorrelation(err, logger.CorrelationIDFromContext(c.Request.Context()), map[string]interface{}{
			"operation": "get_history_record",
			"id":        c.Param("id"),
		})
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve analysis record")
		return
	}
	c.JSON(http.StatusOK, record)
}
