package handler

import (
	"github.com/alumnet/alumnet-backend/internal/common"
	"github.com/alumnet/alumnet-backend/internal/domain"
	"github.com/alumnet/alumnet-backend/internal/middleware"
	"github.com/alumnet/alumnet-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ConversationHandler handles conversation and message API endpoints
type ConversationHandler struct {
	conversations *service.ConversationService
}

// NewConversationHandler creates a new ConversationHandler
func NewConversationHandler(conversations *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

// CreateDirect handles POST /api/v1/conversations/direct
// @Summary Get or create the direct conversation with another user
// @Tags conversations
// @Security BearerAuth
// @Router /conversations/direct [post]
func (h *ConversationHandler) CreateDirect(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		common.Unauthorized(c, "authentication required")
		return
	}

	var in domain.CreateDirectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		common.BadRequest(c, err)
		return
	}

	conv, err := h.conversations.GetOrCreateDirect(principal, in.ParticipantID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.Success(c, conv)
}

// List handles GET /api/v1/conversations
func (h *ConversationHandler) List(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		common.Unauthorized(c, "authentication required")
		return
	}

	summaries, err := h.conversations.ListConversations(principal)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.Success(c, summaries)
}

// Messages handles GET /api/v1/conversations/:id/messages
func (h *ConversationHandler) Messages(c *gin.Context) {
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

	page, limit := parsePagination(c)
	messages, total, err := h.conversations.History(principal, id, page, limit)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.SuccessWithMeta(c, messages, &common.Meta{Page: page, Limit: limit, Total: total})
}

// SendMessage handles POST /api/v1/conversations/:id/messages
// @Summary Send a message (fails with the block reason on a blocked thread)
// @Tags conversations
// @Security BearerAuth
// @Router /conversations/{id}/messages [post]
func (h *ConversationHandler) SendMessage(c *gin.Context) {
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

	var in domain.SendMessageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		common.BadRequest(c, err)
		return
	}

	msg, err := h.conversations.SendMessage(principal, id, in.Content)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.Created(c, msg)
}

// MarkRead handles POST /api/v1/conversations/:id/read
func (h *ConversationHandler) MarkRead(c *gin.Context) {
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

	if err := h.conversations.MarkRead(principal, id); err != nil {
		common.Fail(c, err)
		return
	}
	common.Success(c, gin.H{"read": true})
}

// AdminBlock handles POST /api/v1/admin/conversations/:id/block
func (h *ConversationHandler) AdminBlock(c *gin.Context) {
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

	var in struct {
		Reason string `json:"reason" binding:"required"`
		Source string `json:"source"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		common.BadRequest(c, err)
		return
	}

	conv, err := h.conversations.BlockConversation(principal, id, in.Source, in.Reason)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.Success(c, conv)
}

// Snapshot handles GET /api/v1/admin/conversations/:id/snapshot — the last
// messages of a conversation for a moderation case record.
func (h *ConversationHandler) Snapshot(c *gin.Context) {
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

	messages, err := h.conversations.Snapshot(principal, id)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.Success(c, messages)
}
