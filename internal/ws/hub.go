// Package ws is the live half of the chat service: it upgrades
// connections, tracks which connection has joined which chat room, and
// fans events out to rooms. Room membership is in-process state only;
// it is re-derived from the membership table on every join, never
// carried across reconnects.
package ws

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teamgrid/chat-service/internal/metrics"
	"github.com/teamgrid/chat-service/internal/models"
	"github.com/teamgrid/chat-service/internal/repository"
	"github.com/teamgrid/chat-service/internal/service"
)

const roomShards = 16

// roomShard is one slice of the chat-to-connections table. Sharding by
// chat id keeps unrelated rooms off each other's lock.
type roomShard struct {
	mu    sync.RWMutex
	rooms map[int]map[*Client]struct{}
}

// Hub owns every live connection and the room table. It implements
// service.Broadcaster, so REST-triggered mutations reach joined
// clients through the same fan-out path as socket-triggered ones.
type Hub struct {
	shards [roomShards]*roomShard

	connMu sync.Mutex
	conns  map[*Client]struct{}

	pingInterval  time.Duration
	typingTimeout time.Duration

	// Set via Attach after the services are constructed; the services
	// in turn hold the hub as their Broadcaster.
	guard     *service.Guard
	messages  *service.MessageService
	directory repository.DirectoryRepository

	bridge  *Bridge
	metrics *metrics.ServiceMetrics
	logger  *zap.Logger
}

func NewHub(pingInterval, typingTimeout time.Duration, m *metrics.ServiceMetrics, logger *zap.Logger) *Hub {
	h := &Hub{
		conns:         make(map[*Client]struct{}),
		pingInterval:  pingInterval,
		typingTimeout: typingTimeout,
		metrics:       m,
		logger:        logger,
	}
	for i := range h.shards {
		h.shards[i] = &roomShard{rooms: make(map[int]map[*Client]struct{})}
	}
	return h
}

// Attach closes the construction cycle: services need the hub as their
// Broadcaster, the hub needs the services to handle inbound frames.
func (h *Hub) Attach(guard *service.Guard, messages *service.MessageService, directory repository.DirectoryRepository) {
	h.guard = guard
	h.messages = messages
	h.directory = directory
}

// SetBridge connects the hub to the cross-replica event channel.
func (h *Hub) SetBridge(b *Bridge) { h.bridge = b }

func (h *Hub) shard(chatID int) *roomShard {
	if chatID < 0 {
		chatID = -chatID
	}
	return h.shards[chatID%roomShards]
}

func (h *Hub) register(c *Client) {
	h.connMu.Lock()
	h.conns[c] = struct{}{}
	n := len(h.conns)
	h.connMu.Unlock()

	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
	}
	h.logger.Info("ws client connected",
		zap.String("conn_id", c.id),
		zap.Int("user_id", c.userID),
		zap.Int("total", n),
	)
}

// unregister removes the client from every room it joined and stops
// its typing timers. Safe to call more than once.
func (h *Hub) unregister(c *Client) {
	h.connMu.Lock()
	_, known := h.conns[c]
	delete(h.conns, c)
	h.connMu.Unlock()
	if !known {
		return
	}

	for _, chatID := range c.joinedChats() {
		h.leaveRoom(chatID, c)
	}
	c.stopAllTyping()
	c.closeSend()

	if h.metrics != nil {
		h.metrics.WSConnections.Dec()
	}
	h.logger.Info("ws client disconnected",
		zap.String("conn_id", c.id),
		zap.Int("user_id", c.userID),
	)
}

func (h *Hub) joinRoom(chatID int, c *Client) {
	s := h.shard(chatID)
	s.mu.Lock()
	room, ok := s.rooms[chatID]
	if !ok {
		room = make(map[*Client]struct{})
		s.rooms[chatID] = room
		if h.metrics != nil {
			h.metrics.WSRooms.Inc()
		}
	}
	room[c] = struct{}{}
	s.mu.Unlock()
}

func (h *Hub) leaveRoom(chatID int, c *Client) {
	s := h.shard(chatID)
	s.mu.Lock()
	if room, ok := s.rooms[chatID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(s.rooms, chatID)
			if h.metrics != nil {
				h.metrics.WSRooms.Dec()
			}
		}
	}
	s.mu.Unlock()
}

// broadcastLocal queues the frame to every connection in the chat's
// room on this replica, minus skip. A connection whose outbox is full
// is dropped rather than allowed to stall the rest of the room.
func (h *Hub) broadcastLocal(chatID int, frame ServerFrame, skip *Client) {
	s := h.shard(chatID)

	s.mu.RLock()
	room := s.rooms[chatID]
	targets := make([]*Client, 0, len(room))
	for c := range room {
		if c != skip {
			targets = append(targets, c)
		}
	}
	s.mu.RUnlock()

	var slow []*Client
	for _, c := range targets {
		if c.queue(frame) {
			if h.metrics != nil {
				h.metrics.WSEventsTotal.WithLabelValues(frame.Type).Inc()
			}
		} else {
			slow = append(slow, c)
		}
	}

	for _, c := range slow {
		h.logger.Warn("dropping slow ws consumer",
			zap.String("conn_id", c.id),
			zap.Int("user_id", c.userID),
		)
		h.unregister(c)
		c.conn.Close()
	}
}

// fanout delivers locally and replicates to other instances.
func (h *Hub) fanout(chatID int, frame ServerFrame, skip *Client) {
	h.broadcastLocal(chatID, frame, skip)
	if h.bridge != nil {
		h.bridge.PublishFrame(chatID, frame)
	}
}

// NewMessage implements service.Broadcaster.
func (h *Hub) NewMessage(msg *models.Message) {
	h.fanout(msg.ChatID, ServerFrame{
		Type:    FrameNewMessage,
		ChatID:  msg.ChatID,
		Message: toPayload(msg),
	}, nil)
}

// MessageEdited implements service.Broadcaster.
func (h *Hub) MessageEdited(msg *models.Message) {
	h.fanout(msg.ChatID, ServerFrame{
		Type:    FrameMessageEdited,
		ChatID:  msg.ChatID,
		Message: toPayload(msg),
	}, nil)
}

// MessageDeleted implements service.Broadcaster.
func (h *Hub) MessageDeleted(chatID int, messageID int64) {
	h.fanout(chatID, ServerFrame{
		Type:      FrameMessageDeleted,
		ChatID:    chatID,
		MessageID: messageID,
	}, nil)
}

// EvictChat implements service.Broadcaster: tears down the room after
// a chat is deleted so no further events can reach it.
func (h *Hub) EvictChat(chatID int) {
	h.evictLocal(chatID)
	if h.bridge != nil {
		h.bridge.PublishEvict(chatID)
	}
}

func (h *Hub) evictLocal(chatID int) {
	s := h.shard(chatID)
	s.mu.Lock()
	room := s.rooms[chatID]
	delete(s.rooms, chatID)
	s.mu.Unlock()

	if room == nil {
		return
	}
	if h.metrics != nil {
		h.metrics.WSRooms.Dec()
	}
	for c := range room {
		c.forgetChat(chatID)
	}
}

// RoomSize reports how many local connections are joined to the chat.
func (h *Hub) RoomSize(chatID int) int {
	s := h.shard(chatID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms[chatID])
}

// Close disconnects every client, used during shutdown.
func (h *Hub) Close() {
	h.connMu.Lock()
	conns := make([]*Client, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.connMu.Unlock()

	for _, c := range conns {
		h.unregister(c)
		c.conn.Close()
	}
}
