package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/teamgrid/chat-service/internal/middleware"
	"github.com/teamgrid/chat-service/internal/models"
	"github.com/teamgrid/chat-service/internal/service"
)

type ChatHandler struct {
	chats  *service.ChatService
	logger *zap.Logger
}

func NewChatHandler(chats *service.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chats: chats, logger: logger}
}

type createChatRequest struct {
	Name        string `json:"name" binding:"max=100"`
	Type        int    `json:"type" binding:"required,min=1,max=3"`
	WorkspaceID int    `json:"workspace_id" binding:"required"`
	Members     []int  `json:"members" binding:"required,min=1"`
}

type updateChatRequest struct {
	Name string `json:"name" binding:"required,min=3,max=100"`
}

// Create handles POST /api/v1/chats
func (h *ChatHandler) Create(c *gin.Context) {
	var req createChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	userID := middleware.GetUserID(c)

	chat, membersCount, err := h.chats.Create(c.Request.Context(), userID, service.CreateChatInput{
		Name:        req.Name,
		Type:        models.ChatType(req.Type),
		WorkspaceID: req.WorkspaceID,
		MemberIDs:   req.Members,
	})
	if err != nil {
		fail(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, ChatResponse{
		ID:           chat.ID,
		Name:         chat.Name,
		Type:         int(chat.Type),
		WorkspaceID:  chat.WorkspaceID,
		CreatedAt:    chat.CreatedAt.UTC().Format(time.RFC3339),
		MembersCount: membersCount,
		MyRole:       int(models.RoleAdmin),
	})
}

// List handles GET /api/v1/chats
func (h *ChatHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)

	workspaceID, ok := optionalIntQuery(c, "workspace_id")
	if !ok {
		badRequest(c, "invalid workspace_id")
		return
	}
	chatType, ok := optionalIntQuery(c, "type")
	if !ok {
		badRequest(c, "invalid type")
		return
	}

	summaries, err := h.chats.List(c.Request.Context(), userID, workspaceID, chatType)
	if err != nil {
		fail(c, h.logger, err)
		return
	}

	items := make([]ChatListItem, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, toChatListItem(s))
	}
	c.JSON(http.StatusOK, ChatListResponse{Chats: items, Total: len(items)})
}

// Get handles GET /api/v1/chats/:id
func (h *ChatHandler) Get(c *gin.Context) {
	chatID, ok := pathInt(c, "id")
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)

	details, err := h.chats.Get(c.Request.Context(), userID, chatID)
	if err != nil {
		fail(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, ChatResponse{
		ID:           details.Chat.ID,
		Name:         details.Chat.Name,
		Type:         int(details.Chat.Type),
		WorkspaceID:  details.Chat.WorkspaceID,
		CreatedAt:    details.Chat.CreatedAt.UTC().Format(time.RFC3339),
		MembersCount: details.MembersCount,
		MyRole:       int(details.MyRole),
	})
}

// Update handles PUT /api/v1/chats/:id
func (h *ChatHandler) Update(c *gin.Context) {
	chatID, ok := pathInt(c, "id")
	if !ok {
		return
	}
	var req updateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	userID := middleware.GetUserID(c)

	chat, err := h.chats.UpdateName(c.Request.Context(), userID, chatID, req.Name)
	if err != nil {
		fail(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, ChatResponse{
		ID:          chat.ID,
		Name:        chat.Name,
		Type:        int(chat.Type),
		WorkspaceID: chat.WorkspaceID,
	})
}

// Delete handles DELETE /api/v1/chats/:id
func (h *ChatHandler) Delete(c *gin.Context) {
	chatID, ok := pathInt(c, "id")
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)

	if err := h.chats.Delete(c.Request.Context(), userID, chatID); err != nil {
		fail(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// pathInt parses a numeric path parameter, writing the 400 itself.
func pathInt(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

// optionalIntQuery returns nil when the parameter is absent and false
// when it is present but not a number.
func optionalIntQuery(c *gin.Context, name string) (*int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, false
	}
	return &v, true
}
