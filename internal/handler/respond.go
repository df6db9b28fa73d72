package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hynexus/hynexus-api/internal/dto"
	"github.com/hynexus/hynexus-api/pkg/apierror"
	"github.com/hynexus/hynexus-api/pkg/logger"
	"go.uber.org/zap"
)

// respondError renders API errors with their status. Anything else is logged
// and hidden behind a 500.
func respondError(c *gin.Context, err error) {
	if apiErr, ok := apierror.As(err); ok {
		c.JSON(apiErr.HTTPStatus(), apiErr)
		return
	}

	logger.Log.Error("Unhandled error",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, apierror.Internal())
}

// bindJSON binds the body and answers 400 with per-field details on failure.
func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		logger.Log.Debug("Request body rejected",
			zap.String("path", c.FullPath()),
			zap.String("ip", c.ClientIP()),
			zap.Error(err),
		)
		apiErr := apierror.BadRequest("Invalid request body")
		for field, rule := range dto.ValidationDetails(err) {
			apiErr = apiErr.WithDetail(field, rule)
		}
		c.JSON(http.StatusBadRequest, apiErr)
		return false
	}
	return true
}

// paramUUID parses a path parameter and answers 400 when it is malformed.
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, apierror.BadRequest("Invalid %s: must be a UUID", name))
		return uuid.Nil, false
	}
	return id, true
}
