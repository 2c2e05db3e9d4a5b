// Package events publishes chat activity to Kafka for the notification
// pipeline. Publishing is best effort: a broker outage must never fail
// the user-facing operation.
package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/Shopify/sarama"
	"go.uber.org/zap"

	"github.com/teamgrid/chat-service/internal/models"
)

const (
	EventTypeMessageSent = "message.sent"
	EventTypeChatDeleted = "chat.deleted"
)

// Publisher is what the service layer emits events through.
type Publisher interface {
	MessageSent(ctx context.Context, msg *models.Message)
	ChatDeleted(ctx context.Context, chatID int)
	Close() error
}

// MessageSentEvent is the payload for new messages.
type MessageSentEvent struct {
	Type      string `json:"type"`
	MessageID int64  `json:"message_id"`
	ChatID    int    `json:"chat_id"`
	UserID    int    `json:"user_id"`
	Text      string `json:"text"`
	SentAt    string `json:"sent_at"`
}

// ChatDeletedEvent is the payload for chat deletions.
type ChatDeletedEvent struct {
	Type      string `json:"type"`
	ChatID    int    `json:"chat_id"`
	DeletedAt string `json:"deleted_at"`
}

// KafkaPublisher sends events through a sarama sync producer.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Retry.Backoff = 100 * time.Millisecond
	config.Producer.Return.Successes = true
	config.ClientID = "chat-service"

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		log:      log,
	}, nil
}

func (p *KafkaPublisher) MessageSent(ctx context.Context, msg *models.Message) {
	p.send(msg.ChatID, MessageSentEvent{
		Type:      EventTypeMessageSent,
		MessageID: msg.ID,
		ChatID:    msg.ChatID,
		UserID:    msg.UserID,
		Text:      msg.Text,
		SentAt:    msg.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func (p *KafkaPublisher) ChatDeleted(ctx context.Context, chatID int) {
	p.send(chatID, ChatDeletedEvent{
		Type:      EventTypeChatDeleted,
		ChatID:    chatID,
		DeletedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// send keys messages by chat id so one chat's events stay in partition
// order.
func (p *KafkaPublisher) send(chatID int, event any) {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		p.log.Error("marshal event", zap.Error(err))
		return
	}

	msg := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(strconv.Itoa(chatID)),
		Value:     sarama.ByteEncoder(eventBytes),
		Timestamp: time.Now(),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.log.Error("send event", zap.String("topic", p.topic), zap.Error(err))
		return
	}
	p.log.Debug("event published",
		zap.String("topic", p.topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher is installed when no Kafka brokers are configured.
type NopPublisher struct{}

func (NopPublisher) MessageSent(ctx context.Context, msg *models.Message) {}
func (NopPublisher) ChatDeleted(ctx context.Context, chatID int)          {}
func (NopPublisher) Close() error                                         { return nil }
