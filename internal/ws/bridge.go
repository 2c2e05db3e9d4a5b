package ws

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const bridgeChannel = "chat:events"

const (
	envelopeFrame = "frame"
	envelopeEvict = "evict"
)

// envelope is what travels over the Redis channel. Origin lets a
// replica skip frames it published itself, since those were already
// delivered locally.
type envelope struct {
	Origin string      `json:"origin"`
	Kind   string      `json:"kind"`
	ChatID int         `json:"chat_id"`
	Frame  ServerFrame `json:"frame,omitempty"`
}

// Bridge replicates room events across service instances through Redis
// pub/sub. Without it, a message sent on one replica would only reach
// the connections that happen to live on that replica.
type Bridge struct {
	rdb        *redis.Client
	hub        *Hub
	instanceID string
	logger     *zap.Logger
}

func NewBridge(rdb *redis.Client, hub *Hub, logger *zap.Logger) *Bridge {
	return &Bridge{
		rdb:        rdb,
		hub:        hub,
		instanceID: uuid.NewString(),
		logger:     logger,
	}
}

// Run subscribes and delivers remote events until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) {
	sub := b.rdb.Subscribe(ctx, bridgeChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warn("bridge: bad envelope", zap.Error(err))
				continue
			}
			if env.Origin == b.instanceID {
				continue
			}

			switch env.Kind {
			case envelopeFrame:
				b.hub.broadcastLocal(env.ChatID, env.Frame, nil)
			case envelopeEvict:
				b.hub.evictLocal(env.ChatID)
			}
		}
	}
}

// PublishFrame replicates a room frame to the other instances.
// Delivery is best effort; a Redis hiccup only affects cross-replica
// fan-out, local clients already got the frame.
func (b *Bridge) PublishFrame(chatID int, frame ServerFrame) {
	b.publish(envelope{Origin: b.instanceID, Kind: envelopeFrame, ChatID: chatID, Frame: frame})
}

// PublishEvict replicates a room teardown.
func (b *Bridge) PublishEvict(chatID int) {
	b.publish(envelope{Origin: b.instanceID, Kind: envelopeEvict, ChatID: chatID})
}

func (b *Bridge) publish(env envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		return
	}
	if err := b.rdb.Publish(context.Background(), bridgeChannel, payload).Err(); err != nil {
		b.logger.Warn("bridge: publish failed", zap.Error(err))
	}
}
