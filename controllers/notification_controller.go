package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"research-review-api/services"
)

// NotificationController serves the caller's in-app notifications.
type NotificationController struct {
	inbox  services.Inbox
	logger zerolog.Logger
}

func NewNotificationController(inbox services.Inbox, logger zerolog.Logger) *NotificationController {
	return &NotificationController{inbox: inbox, logger: logger}
}

func (n *NotificationController) GetNotifications(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	unreadOnly := strings.TrimSpace(c.Query("unreadOnly"))
	limitStr := strings.TrimSpace(c.Query("limit"))
	offsetStr := strings.TrimSpace(c.Query("offset"))

	limit := 20
	offset := 0
	if v, err := strconv.Atoi(limitStr); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(offsetStr); err == nil && v >= 0 {
		offset = v
	}

	items, err := n.inbox.List(c.Request.Context(), actor.ID,
		unreadOnly == "1" || strings.EqualFold(unreadOnly, "true"), limit, offset)
	if err != nil {
		respondError(c, n.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (n *NotificationController) GetNotificationCounter(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	count, err := n.inbox.CountUnread(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, n.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (n *NotificationController) MarkNotificationRead(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := n.inbox.MarkRead(c.Request.Context(), actor.ID, uint(id)); err != nil {
		respondError(c, n.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (n *NotificationController) MarkAllNotificationsRead(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	updated, err := n.inbox.MarkAllRead(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, n.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "updated": updated})
}
