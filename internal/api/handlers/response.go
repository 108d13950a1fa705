package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/oilpulse/internal/middleware"
	"github.com/irfndi/oilpulse/internal/utils"
)

// ErrorResponse is the body of every failed analysis request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// StatusForError maps an analysis error to its HTTP status.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, utils.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, utils.ErrEmptyRange), errors.Is(err, utils.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, utils.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {error, kind} with the mapped status and marks the
// request span failed. Internal errors are not echoed to the client.
func respondError(c *gin.Context, err error) {
	status := StatusForError(err)
	kind := utils.ErrorKind(err)
	middleware.RecordError(c, err, kind)

	message := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		message = "internal server error"
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Kind: kind})
}

// respondJSON writes an already encoded JSON body.
func respondJSON(c *gin.Context, body []byte) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// windowDaysParam reads the optional window_days query parameter; 0 means
// the configured default.
func windowDaysParam(c *gin.Context) (int, error) {
	raw := c.Query("window_days")
	if raw == "" {
		return 0, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, utils.NewValidationErrorf("window_days must be an integer, got %q", raw)
	}
	if days <= 0 {
		return 0, utils.NewValidationErrorf("window_days must be positive, got %d", days)
	}
	return days, nil
}
