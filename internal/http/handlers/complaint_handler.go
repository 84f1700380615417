package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/pokemarket-backend/internal/dto"
	"github.com/ignatzorin/pokemarket-backend/internal/http/handlers/common"
	"github.com/ignatzorin/pokemarket-backend/internal/service"
)

// ComplaintHandler жалобы пользователей и их модерация.
type ComplaintHandler struct {
	complaints *service.ComplaintService
}

func NewComplaintHandler(complaints *service.ComplaintService) *ComplaintHandler {
	return &ComplaintHandler{complaints: complaints}
}

// Create POST /complaints
func (h *ComplaintHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}

	var req dto.CreateComplaintRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	complaint, err := h.complaints.CreateComplaint(c.Request.Context(), userID, service.ComplaintInput{
		TargetType:  req.TargetType,
		TargetID:    req.TargetID,
		Reason:      req.Reason,
		Description: req.Description,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, complaint)
}

// List GET /admin/complaints?status=
func (h *ComplaintHandler) List(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	complaints, err := h.complaints.ListComplaints(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(complaints, limit, offset))
}

// Resolve PUT /admin/complaints/:id
func (h *ComplaintHandler) Resolve(c *gin.Context) {
	runAdminAction(c, "id", func(c *gin.Context, ids adminIDs) (interface{}, error) {
		var req dto.ResolveComplaintRequest
		if err := common.BindJSON(c, &req); err != nil {
			return nil, err
		}
		return h.complaints.ResolveComplaint(c.Request.Context(), ids.target, ids.actor, req.Status)
	})
}
