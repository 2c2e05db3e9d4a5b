package service

import "github.com/teamgrid/chat-service/internal/models"

// Broadcaster delivers live events to the WebSocket connections joined
// to a chat's room. The hub implements it; services stay ignorant of
// socket mechanics.
type Broadcaster interface {
	// NewMessage fans the message out to every connection in the
	// chat's room, the sender's connections included.
	NewMessage(msg *models.Message)

	// MessageEdited notifies the room of an edit.
	MessageEdited(msg *models.Message)

	// MessageDeleted notifies the room of a hard delete.
	MessageDeleted(chatID int, messageID int64)

	// EvictChat tears down the chat's room so no further events are
	// broadcast for a deleted chat.
	EvictChat(chatID int)
}

// NopBroadcaster satisfies Broadcaster without doing anything. Used in
// tests.
type NopBroadcaster struct{}

func (NopBroadcaster) NewMessage(msg *models.Message)             {}
func (NopBroadcaster) MessageEdited(msg *models.Message)          {}
func (NopBroadcaster) MessageDeleted(chatID int, messageID int64) {}
func (NopBroadcaster) EvictChat(chatID int)                       {}
