package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/teamgrid/chat-service/internal/middleware"
	"github.com/teamgrid/chat-service/internal/models"
	"github.com/teamgrid/chat-service/internal/service"
)

type MemberHandler struct {
	members *service.MemberService
	logger  *zap.Logger
}

func NewMemberHandler(members *service.MemberService, logger *zap.Logger) *MemberHandler {
	return &MemberHandler{members: members, logger: logger}
}

type addMembersRequest struct {
	UserIDs []int `json:"user_ids" binding:"required,min=1"`
	Role    int   `json:"role" binding:"required,min=1,max=2"`
}

type updateMemberRoleRequest struct {
	Role int `json:"role" binding:"required,min=1,max=2"`
}

// Add handles POST /api/v1/chats/:id/members
func (h *MemberHandler) Add(c *gin.Context) {
	chatID, ok := pathInt(c, "id")
	if !ok {
		return
	}
	var req addMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	userID := middleware.GetUserID(c)

	added, err := h.members.Add(c.Request.Context(), userID, chatID, req.UserIDs, models.MemberRole(req.Role))
	if err != nil {
		fail(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, AddMembersResponse{Added: added, ChatID: chatID})
}

// List handles GET /api/v1/chats/:id/members
func (h *MemberHandler) List(c *gin.Context) {
	chatID, ok := pathInt(c, "id")
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)

	members, err := h.members.List(c.Request.Context(), userID, chatID)
	if err != nil {
		fail(c, h.logger, err)
		return
	}

	out := make([]ChatMemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, toMemberResponse(m))
	}
	c.JSON(http.StatusOK, ChatMembersResponse{Members: out, Total: len(out)})
}

// UpdateRole handles PUT /api/v1/chats/:id/members/:user_id
func (h *MemberHandler) UpdateRole(c *gin.Context) {
	chatID, ok := pathInt(c, "id")
	if !ok {
		return
	}
	targetID, ok := pathInt(c, "user_id")
	if !ok {
		return
	}
	var req updateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	userID := middleware.GetUserID(c)

	if err := h.members.UpdateRole(c.Request.Context(), userID, chatID, targetID, models.MemberRole(req.Role)); err != nil {
		fail(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, UpdateMemberRoleResponse{UserID: targetID, ChatID: chatID, Role: req.Role})
}

// Remove handles DELETE /api/v1/chats/:id/members/:user_id
func (h *MemberHandler) Remove(c *gin.Context) {
	chatID, ok := pathInt(c, "id")
	if !ok {
		return
	}
	targetID, ok := pathInt(c, "user_id")
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)

	if err := h.members.Remove(c.Request.Context(), userID, chatID, targetID); err != nil {
		fail(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
