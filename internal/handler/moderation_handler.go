package handler

import (
	"github.com/alumnet/alumnet-backend/internal/common"
	"github.com/alumnet/alumnet-backend/internal/domain"
	"github.com/alumnet/alumnet-backend/internal/middleware"
	"github.com/alumnet/alumnet-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ModerationHandler handles admin moderation endpoints (blocks)
type ModerationHandler struct {
	moderation *service.ModerationService
}

// NewModerationHandler creates a new ModerationHandler
func NewModerationHandler(moderation *service.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderation: moderation}
}

// CreateBlock handles POST /api/v1/admin/blocks
// @Summary Create a mentorship block (student-global, mentor-global or pair)
// @Tags admin
// @Security BearerAuth
// @Router /admin/blocks [post]
func (h *ModerationHandler) CreateBlock(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		common.Unauthorized(c, "authentication required")
		return
	}

	var in domain.CreateBlockInput
	if err := c.ShouldBindJSON(&in); err != nil {
		common.BadRequest(c, err)
		return
	}

	block, err := h.moderation.CreateBlock(principal, &in)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.Created(c, block)
}

// ToggleBlock handles PATCH /api/v1/admin/blocks/:id
func (h *ModerationHandler) ToggleBlock(c *gin.Context) {
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

	var in domain.ToggleBlockInput
	if err := c.ShouldBindJSON(&in); err != nil {
		common.BadRequest(c, err)
		return
	}

	block, err := h.moderation.ToggleBlock(principal, id, *in.IsActive)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.Success(c, block)
}

// ListBlocks handles GET /api/v1/admin/blocks
func (h *ModerationHandler) ListBlocks(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		common.Unauthorized(c, "authentication required")
		return
	}

	page, limit := parsePagination(c)
	blocks, total, err := h.moderation.ListBlocks(principal, c.Query("scope"), page, limit)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.SuccessWithMeta(c, blocks, &common.Meta{Page: page, Limit: limit, Total: total})
}

// ListMentors handles GET /api/v1/mentors — the directory listing with the
// mentor-global-block filter applied.
func (h *ModerationHandler) ListMentors(c *gin.Context) {
	page, limit := parsePagination(c)
	mentors, total, err := h.moderation.ListMentors(page, limit)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.SuccessWithMeta(c, mentors, &common.Meta{Page: page, Limit: limit, Total: total})
}
