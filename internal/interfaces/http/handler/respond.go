package handler

import (
	"net/http"

	"github.com/catalogsync/indexer/internal/infrastructure/logger"
	"github.com/catalogsync/indexer/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestID(c *gin.Context) string {
	if id := logger.GetRequestID(c.Request.Context()); id != "" {
		return id
	}
	return c.GetHeader(logger.RequestIDHeader)
}

func respond(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.OK(data))
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.Failure(dto.ErrCodeBadRequest, message, requestID(c)))
}

// fail writes the error envelope for err. Server-side failures are logged.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	status, code, message := dto.Classify(err)
	if status >= http.StatusInternalServerError {
		logger.L(c.Request.Context()).Error("price request failed", zap.String("code", code), zap.Error(err))
	}
	c.JSON(status, dto.Failure(code, message, requestID(c)))
}
