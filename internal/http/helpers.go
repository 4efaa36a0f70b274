package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clipshelf/clipshelf/internal/storage"
)

// ErrorResponse is the standard error response format for all API errors.
// Error carries a generic per-operation message; internals stay in the logs.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error with its operation and sends a
// generic message. Remote operations attempted without a session map to
// 401 instead of 500.
func respondInternalError(c *gin.Context, operation string, err error) {
	log.Printf("Failed to %s: %v", operation, err)
	if errors.Is(err, storage.ErrNotAuthenticated) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "not authenticated"})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to " + operation})
}
