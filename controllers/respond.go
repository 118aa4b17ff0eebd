package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"research-review-api/middleware"
	"research-review-api/services"
)

// respondError maps workflow errors onto HTTP responses.
func respondError(c *gin.Context, logger zerolog.Logger, err error) {
	var (
		validation *services.ValidationError
		notFound   *services.NotFoundError
		transition *services.InvalidTransitionError
		conflict   *services.ConflictError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   validation.Error(),
			"field":   validation.Field,
		})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   notFound.Error(),
		})
	case errors.As(err, &transition):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   transition.Error(),
			"status":  transition.Status,
			"role":    transition.Role,
			"action":  transition.Action,
		})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   conflict.Error(),
		})
	default:
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Internal server error",
		})
	}
}

func requireActor(c *gin.Context) (services.Actor, bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
		return services.Actor{}, false
	}
	return actor, true
}
