package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"ecoloop/internal/apperr"
	"ecoloop/internal/middleware"
	"ecoloop/internal/services"
	"ecoloop/internal/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindInvalidAmount, apperr.KindUnknownTransactionKind:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindInvalidTransition:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes the {"error","message"} body for err. Internal errors
// are logged with their cause and answered with a generic message.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		log.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": kind, "message": apperr.MessageOf(err)})
}

// bindJSON decodes the body into obj, answering 400 on failure. Model-level
// decode errors (a waste item without sellingPrice) surface here too.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondError(c, apperr.Validation("invalid request body: %v", err))
		return false
	}
	return true
}

func actor(c *gin.Context) services.Identity {
	return middleware.CurrentIdentity(c)
}

func pageSize(c *gin.Context) int {
	return utils.ClampLimit(c.Query("limit"), defaultPageSize, maxPageSize)
}
