package handler

import (
	"github.com/alumnet/alumnet-backend/internal/common"
	"github.com/alumnet/alumnet-backend/internal/middleware"
	"github.com/alumnet/alumnet-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// NotificationHandler handles notification read API endpoints
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List handles GET /api/v1/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		common.Unauthorized(c, "authentication required")
		return
	}

	page, limit := parsePagination(c)
	list, err := h.notifications.List(principal, page, limit)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.Success(c, list)
}

// UnreadCount handles GET /api/v1/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		common.Unauthorized(c, "authentication required")
		return
	}

	count, err := h.notifications.UnreadCount(principal)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.Success(c, gin.H{"unread_count": count})
}

// MarkRead handles POST /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		common.Unauthorized(c, "authentication required")
		return
	}

	id, err := parseID(c, "id")
	if err != nil {
		common.BadRequest(c, err)
		return
	}

	if err := h.notifications.MarkAsRead(principal, id); err != nil {
		common.Fail(c, err)
		return
	}
	common.Success(c, gin.H{"read": true})
}

// MarkAllRead handles POST /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		common.Unauthorized(c, "authentication required")
		return
	}

	if err := h.notifications.MarkAllAsRead(principal); err != nil {
		common.Fail(c, err)
		return
	}
	common.Success(c, gin.H{"read": true})
}
