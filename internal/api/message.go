package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/teamgrid/chat-service/internal/middleware"
	"github.com/teamgrid/chat-service/internal/service"
)

type MessageHandler struct {
	messages *service.MessageService
	logger   *zap.Logger
}

func NewMessageHandler(messages *service.MessageService, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, logger: logger}
}

type createMessageRequest struct {
	Text string `json:"text" binding:"required,min=1,max=1000"`
}

type updateMessageRequest struct {
	Text string `json:"text" binding:"required,min=1,max=1000"`
}

type markAsReadRequest struct {
	LastMessageID int64 `json:"last_message_id" binding:"required"`
}

// Create handles POST /api/v1/chats/:id/messages
func (h *MessageHandler) Create(c *gin.Context) {
	chatID, ok := pathInt(c, "id")
	if !ok {
		return
	}
	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	userID := middleware.GetUserID(c)

	msg, err := h.messages.Send(c.Request.Context(), userID, chatID, req.Text)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, toMessageResponse(msg))
}

// List handles GET /api/v1/chats/:id/messages
func (h *MessageHandler) List(c *gin.Context) {
	chatID, ok := pathInt(c, "id")
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	page, err := h.messages.List(c.Request.Context(), userID, chatID, limit, offset)
	if err != nil {
		fail(c, h.logger, err)
		return
	}

	out := make([]MessageResponse, 0, len(page.Messages))
	for i := range page.Messages {
		out = append(out, toMessageResponse(&page.Messages[i]))
	}
	c.JSON(http.StatusOK, MessagesResponse{Messages: out, HasMore: page.HasMore, Total: page.Total})
}

// Update handles PUT /api/v1/chats/:id/messages/:message_id
func (h *MessageHandler) Update(c *gin.Context) {
	chatID, ok := pathInt(c, "id")
	if !ok {
		return
	}
	messageID, ok := pathInt64(c, "message_id")
	if !ok {
		return
	}
	var req updateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	userID := middleware.GetUserID(c)

	msg, err := h.messages.Edit(c.Request.Context(), userID, chatID, messageID, req.Text)
	if err != nil {
		fail(c, h.logger, err)
		return
	}

	resp := UpdateMessageResponse{
		ID:     msg.ID,
		ChatID: msg.ChatID,
		Text:   msg.Text,
		Edited: msg.Edited,
	}
	if msg.EditedAt != nil {
		resp.EditedAt = msg.EditedAt.UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

// Delete handles DELETE /api/v1/chats/:id/messages/:message_id
func (h *MessageHandler) Delete(c *gin.Context) {
	chatID, ok := pathInt(c, "id")
	if !ok {
		return
	}
	messageID, ok := pathInt64(c, "message_id")
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)

	if err := h.messages.Delete(c.Request.Context(), userID, chatID, messageID); err != nil {
		fail(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkAsRead handles PUT /api/v1/chats/:id/messages/read
func (h *MessageHandler) MarkAsRead(c *gin.Context) {
	chatID, ok := pathInt(c, "id")
	if !ok {
		return
	}
	var req markAsReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	userID := middleware.GetUserID(c)

	lastRead, marked, err := h.messages.MarkRead(c.Request.Context(), userID, chatID, req.LastMessageID)
	if err != nil {
		fail(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, MarkAsReadResponse{
		ChatID:            chatID,
		MarkedAsRead:      marked,
		LastReadMessageID: lastRead,
	})
}

func pathInt64(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || v <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}
