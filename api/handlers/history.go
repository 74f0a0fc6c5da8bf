package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avallone/convertd/internal/models"
	"github.com/avallone/convertd/internal/service/conversion"
	"github.com/avallone/convertd/pkg/logger"
)

type HistoryHandler struct {
	service conversion.Service
	logger  logger.Logger
}

func NewHistoryHandler(service conversion.Service, logger logger.Logger) *HistoryHandler {
	return &HistoryHandler{
		service: service,
		logger:  logger,
	}
}

// List returns all sessions, newest first.
func (h *HistoryHandler) List(c *gin.Context) {
	sessions, err := h.service.History()
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to list history", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// DeleteSession removes one session from history.
func (h *HistoryHandler) DeleteSession(c *gin.Context) {
	outcome := h.service.DeleteSession(c.Param("sessionId"))
	c.JSON(statusFor(outcome), outcome)
}

// DeleteFile removes one file from a session.
func (h *HistoryHandler) DeleteFile(c *gin.Context) {
	outcome := h.service.DeleteFile(c.Param("sessionId"), c.Param("filename"))
	c.JSON(statusFor(outcome), outcome)
}

// DeleteBatch removes multiple files and/or sessions in one request. Every
// target gets its own outcome; partial failure does not stop the batch.
func (h *HistoryHandler) DeleteBatch(c *gin.Context) {
	var req models.DeleteBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid delete request", err)
		return
	}
	if len(req.Files) == 0 && len(req.Sessions) == 0 {
		h.handleError(c, http.StatusBadRequest, "No targets provided", nil)
		return
	}

	outcomes := h.service.DeleteBatch(req)

	deleted := 0
	for _, outcome := range outcomes {
		if outcome.Deleted {
			deleted++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"results": outcomes,
		"deleted": deleted,
	})
}

func statusFor(outcome models.DeleteOutcome) int {
	switch {
	case outcome.Missing:
		return http.StatusNotFound
	case outcome.Error != "":
		return http.StatusInternalServerError
	}
	return http.StatusOK
}

func (h *HistoryHandler) handleError(c *gin.Context, status int, message string, err error) {
	h.logger.Error(message,
		logger.String("path", c.Request.URL.Path),
		logger.Error(err),
	)

	response := ErrorResponse{
		Message: message,
	}
	if err != nil {
		response.Error = err.Error()
	}

	c.JSON(status, response)
}
