package middleware

import (
	"net/http"

	"github.com/catalogsync/indexer/internal/infrastructure/logger"
	"github.com/catalogsync/indexer/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BodyLimit rejects requests that declare a body over maxBytes and caps
// reads of bodies with unknown length.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.Failure(dto.ErrCodeTooLarge, "request body too large", logger.GetRequestID(c.Request.Context())))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
