package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tesseract-hub/accreditation-service/internal/middleware"
	"github.com/tesseract-hub/accreditation-service/internal/models"
	"github.com/tesseract-hub/accreditation-service/internal/services"
)

// respondError maps the service error taxonomy onto HTTP statuses. Unknown
// errors collapse into a 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	var authErr *services.AuthenticationError
	var authzErr *services.AuthorizationError
	var valErr *services.ValidationError
	var stateErr *services.InvalidStateError
	var notFound *services.NotFoundError

	switch {
	case errors.As(err, &authErr):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": authErr.Message,
			"code":  "AUTHENTICATION_FAILED",
		})
	case errors.As(err, &authzErr):
		c.JSON(http.StatusForbidden, gin.H{
			"error": authzErr.Message,
			"code":  "FORBIDDEN",
		})
	case errors.As(err, &valErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "Validation failed",
			"code":   "VALIDATION_FAILED",
			"fields": valErr.Fields,
		})
	case errors.As(err, &stateErr):
		c.JSON(http.StatusConflict, gin.H{
			"error": stateErr.Message,
			"code":  "INVALID_STATE",
		})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": notFound.Error(),
			"code":  "NOT_FOUND",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
			"code":  "INTERNAL_ERROR",
		})
	}
}

// respondBadRequest reports a malformed payload.
func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": err.Error(),
		"code":  "BAD_REQUEST",
	})
}

// clientMeta collects request metadata for the audit trail. The actor is
// filled in when a staff session is present.
func clientMeta(c *gin.Context) models.ClientMeta {
	meta := models.ClientMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Method:    c.Request.Method,
		Endpoint:  c.FullPath(),
	}
	if user := middleware.CurrentUser(c); user != nil {
		meta.ActorID = &user.ID
		meta.ActorName = user.FullName()
	}
	return meta
}
