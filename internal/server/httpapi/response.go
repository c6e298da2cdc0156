package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"videohub/internal/common"
)

// respond writes the uniform success envelope.
func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{"data": data, "message": message})
}

// writeError maps the service error taxonomy onto HTTP status codes. The
// error message is the only detail surfaced; stack traces and storage or
// signing internals never leave the server.
func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrUnauthorized), errors.Is(err, common.ErrInvalidToken):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		s.log.Error(c.Request.Context(), "internal error", "path", c.Request.URL.Path, "error", err.Error())
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
