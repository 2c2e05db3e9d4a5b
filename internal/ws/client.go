package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/teamgrid/chat-service/internal/apperr"
)

const (
	writeWait      = 10 * time.Second
	maxFrameSize   = 4096
	sendBufferSize = 256
)

// Client is one WebSocket connection. A user may hold any number of
// them; each tracks its own joined rooms and typing timers.
type Client struct {
	id     string
	userID int
	conn   *websocket.Conn
	hub    *Hub
	send   chan ServerFrame

	mu     sync.Mutex
	closed bool
	joined map[int]struct{}
	typing map[int]*time.Timer

	logger *zap.Logger
}

func newClient(userID int, conn *websocket.Conn, hub *Hub, logger *zap.Logger) *Client {
	return &Client{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		hub:    hub,
		send:   make(chan ServerFrame, sendBufferSize),
		joined: make(map[int]struct{}),
		typing: make(map[int]*time.Timer),
		logger: logger,
	}
}

// queue hands the frame to the write pump without blocking. Returns
// false when the outbox is full; the hub then drops the connection.
func (c *Client) queue(frame ServerFrame) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) queueError(err error) {
	c.queue(ServerFrame{
		Type: FrameError,
		Error: &ErrorInfo{
			Code:    apperr.WSCode(err),
			Message: apperr.PublicMessage(err),
		},
	})
}

func (c *Client) joinedChats() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int, 0, len(c.joined))
	for id := range c.joined {
		out = append(out, id)
	}
	return out
}

func (c *Client) isJoined(chatID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.joined[chatID]
	return ok
}

// forgetChat drops local room state for the chat, used when a chat is
// deleted out from under the connection.
func (c *Client) forgetChat(chatID int) {
	c.mu.Lock()
	delete(c.joined, chatID)
	if t, ok := c.typing[chatID]; ok {
		t.Stop()
		delete(c.typing, chatID)
	}
	c.mu.Unlock()
}

func (c *Client) stopAllTyping() {
	c.mu.Lock()
	for id, t := range c.typing {
		t.Stop()
		delete(c.typing, id)
	}
	c.mu.Unlock()
}

func (c *Client) readPump(pongWait time.Duration) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("ws read error", zap.String("conn_id", c.id), zap.Error(err))
			}
			return
		}

		var frame ClientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.queueError(apperr.Validation("invalid message format"))
			continue
		}
		c.handleFrame(frame)
	}
}

func (c *Client) writePump(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleFrame(frame ClientFrame) {
	switch frame.Type {
	case FrameJoinChat:
		c.handleJoin(frame.ChatID)
	case FrameLeaveChat:
		c.handleLeave(frame.ChatID)
	case FrameSendMessage:
		c.handleSend(frame.ChatID, frame.Text)
	case FrameTyping:
		c.handleTyping(frame.ChatID)
	case FrameStopTyping:
		c.handleStopTyping(frame.ChatID)
	default:
		c.queue(ServerFrame{
			Type:  FrameError,
			Error: &ErrorInfo{Code: "UNKNOWN_TYPE", Message: "unknown message type"},
		})
	}
}

// handleJoin checks membership against the store on every join, so a
// revoked membership is enforced on the next join even within one
// connection's lifetime.
func (c *Client) handleJoin(chatID int) {
	if _, err := c.hub.guard.CanRead(context.Background(), chatID, c.userID); err != nil {
		c.queueError(err)
		return
	}

	c.mu.Lock()
	c.joined[chatID] = struct{}{}
	c.mu.Unlock()
	c.hub.joinRoom(chatID, c)

	c.queue(ServerFrame{Type: FrameJoinedChat, ChatID: chatID, UserID: c.userID})

	c.hub.fanout(chatID, ServerFrame{
		Type:     FrameUserJoined,
		ChatID:   chatID,
		UserID:   c.userID,
		UserName: c.userName(),
	}, c)
}

// handleLeave is idempotent; leaving a room never joined is a no-op.
func (c *Client) handleLeave(chatID int) {
	c.mu.Lock()
	_, wasJoined := c.joined[chatID]
	delete(c.joined, chatID)
	if t, ok := c.typing[chatID]; ok {
		t.Stop()
		delete(c.typing, chatID)
	}
	c.mu.Unlock()

	if !wasJoined {
		return
	}
	c.hub.leaveRoom(chatID, c)

	c.hub.fanout(chatID, ServerFrame{
		Type:   FrameUserLeft,
		ChatID: chatID,
		UserID: c.userID,
	}, c)
}

// handleSend goes through the same service path as REST, so channel
// posting rules and the new_message fan-out are identical on both
// transports. The sender's own frame arrives via the broadcast.
func (c *Client) handleSend(chatID int, text string) {
	if _, err := c.hub.messages.Send(context.Background(), c.userID, chatID, text); err != nil {
		c.queueError(err)
	}
}

// handleTyping requires an active join and auto-expires: if the client
// never sends stop_typing, the hub emits user_stopped_typing for it
// after the configured idle window.
func (c *Client) handleTyping(chatID int) {
	if !c.isJoined(chatID) {
		c.queueError(apperr.Membership("user is not a member of this chat"))
		return
	}

	c.mu.Lock()
	if t, ok := c.typing[chatID]; ok {
		t.Reset(c.hub.typingTimeout)
	} else {
		c.typing[chatID] = time.AfterFunc(c.hub.typingTimeout, func() {
			c.expireTyping(chatID)
		})
	}
	c.mu.Unlock()

	c.hub.fanout(chatID, ServerFrame{
		Type:     FrameUserTyping,
		ChatID:   chatID,
		UserID:   c.userID,
		UserName: c.userName(),
	}, c)
}

func (c *Client) handleStopTyping(chatID int) {
	if !c.isJoined(chatID) {
		return
	}

	c.mu.Lock()
	if t, ok := c.typing[chatID]; ok {
		t.Stop()
		delete(c.typing, chatID)
	}
	c.mu.Unlock()

	c.hub.fanout(chatID, ServerFrame{
		Type:   FrameUserStoppedTyping,
		ChatID: chatID,
		UserID: c.userID,
	}, c)
}

func (c *Client) expireTyping(chatID int) {
	c.mu.Lock()
	if _, ok := c.typing[chatID]; !ok {
		c.mu.Unlock()
		return
	}
	delete(c.typing, chatID)
	c.mu.Unlock()

	c.hub.fanout(chatID, ServerFrame{
		Type:   FrameUserStoppedTyping,
		ChatID: chatID,
		UserID: c.userID,
	}, c)
}

func (c *Client) userName() string {
	name, err := c.hub.directory.UserName(context.Background(), c.userID)
	if err != nil {
		return "Unknown"
	}
	return name
}
