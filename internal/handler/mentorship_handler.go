package handler

import (
	"strconv"

	"github.com/alumnet/alumnet-backend/internal/common"
	"github.com/alumnet/alumnet-backend/internal/domain"
	"github.com/alumnet/alumnet-backend/internal/middleware"
	"github.com/alumnet/alumnet-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// MentorshipHandler handles mentorship request API endpoints
type MentorshipHandler struct {
	mentorships *service.MentorshipService
}

// NewMentorshipHandler creates a new MentorshipHandler
func NewMentorshipHandler(mentorships *service.MentorshipService) *MentorshipHandler {
	return &MentorshipHandler{mentorships: mentorships}
}

// Create handles POST /api/v1/mentorship/requests
// @Summary Create a mentorship request
// @Tags mentorship
// @Security BearerAuth
// @Router /mentorship/requests [post]
func (h *MentorshipHandler) Create(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		common.Unauthorized(c, "authentication required")
		return
	}

	var in domain.CreateRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		common.BadRequest(c, err)
		return
	}

	req, err := h.mentorships.CreateRequest(principal, &in)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.Created(c, req)
}

// Get handles GET /api/v1/mentorship/requests/:id
func (h *MentorshipHandler) Get(c *gin.Context) {
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

	req, err := h.mentorships.Get(principal, id)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.Success(c, req)
}

// Respond handles POST /api/v1/mentorship/requests/:id/respond
// @Summary Accept or reject a pending request (named alumni only)
// @Tags mentorship
// @Security BearerAuth
// @Router /mentorship/requests/{id}/respond [post]
func (h *MentorshipHandler) Respond(c *gin.Context) {
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

	var in domain.RespondInput
	if err := c.ShouldBindJSON(&in); err != nil {
		common.BadRequest(c, err)
		return
	}

	req, err := h.mentorships.Respond(principal, id, in.Decision)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.Success(c, req)
}

// Cancel handles POST /api/v1/mentorship/requests/:id/cancel
func (h *MentorshipHandler) Cancel(c *gin.Context) {
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

	req, err := h.mentorships.Cancel(principal, id)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.Success(c, req)
}

// ListSent handles GET /api/v1/mentorship/requests/sent
func (h *MentorshipHandler) ListSent(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		common.Unauthorized(c, "authentication required")
		return
	}

	page, limit := parsePagination(c)
	requests, total, err := h.mentorships.ListForStudent(principal, c.Query("status"), page, limit)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.SuccessWithMeta(c, requests, &common.Meta{Page: page, Limit: limit, Total: total})
}

// ListReceived handles GET /api/v1/mentorship/requests/received
func (h *MentorshipHandler) ListReceived(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		common.Unauthorized(c, "authentication required")
		return
	}

	page, limit := parsePagination(c)
	requests, total, err := h.mentorships.ListForAlumni(principal, c.Query("status"), page, limit)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.SuccessWithMeta(c, requests, &common.Meta{Page: page, Limit: limit, Total: total})
}

// AdminList handles GET /api/v1/admin/mentorship/requests
func (h *MentorshipHandler) AdminList(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		common.Unauthorized(c, "authentication required")
		return
	}

	page, limit := parsePagination(c)
	requests, total, err := h.mentorships.AdminList(principal, c.Query("status"), page, limit)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.SuccessWithMeta(c, requests, &common.Meta{Page: page, Limit: limit, Total: total})
}

// ForceStop handles POST /api/v1/admin/mentorship/requests/:id/force-stop
// @Summary Force-stop a pending request with a mandatory reason
// @Tags admin
// @Security BearerAuth
// @Router /admin/mentorship/requests/{id}/force-stop [post]
func (h *MentorshipHandler) ForceStop(c *gin.Context) {
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

	var in domain.ForceStopInput
	if err := c.ShouldBindJSON(&in); err != nil {
		common.BadRequest(c, err)
		return
	}

	req, err := h.mentorships.AdminForceStop(principal, id, in.Reason)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.Success(c, req)
}

func parseID(c *gin.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
