package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannel is the Redis channel used when none is configured
const DefaultChannel = "invoicing:live"

// Change identifies a tenant collection whose state changed
type Change struct {
	TenantID   uuid.UUID  `json:"tenant_id"`
	Collection Collection `json:"collection"`
}

// Broker distributes change notifications between API instances
type Broker interface {
	Publish(ctx context.Context, change Change) error
	// Listen calls fn for every received change until ctx is done
	Listen(ctx context.Context, fn func(Change)) error
	Close() error
}

// RedisBroker implements Broker over Redis pub/sub
type RedisBroker struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisBroker creates a broker on a shared client
func NewRedisBroker(client *redis.Client, channel string, logger *zap.Logger) *RedisBroker {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBroker{client: client, channel: channel, logger: logger}
}

// Publish sends a change to every listening instance, this one included
func (b *RedisBroker) Publish(ctx context.Context, change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to encode live change: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish live change: %w", err)
	}
	return nil
}

// Listen subscribes to the channel and blocks until ctx is done
func (b *RedisBroker) Listen(ctx context.Context, fn func(Change)) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var change Change
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				b.logger.Warn("Dropping malformed live change", zap.String("payload", msg.Payload), zap.Error(err))
				continue
			}
			fn(change)
		}
	}
}

// Close is a no-op; the Redis client is owned by the caller
func (b *RedisBroker) Close() error {
	return nil
}
