package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mamadbah2/medimart-cart/internal/config"
	"github.com/mamadbah2/medimart-cart/internal/domain/models"
	"github.com/mamadbah2/medimart-cart/internal/repository"
)

// DefaultChannel is the Pub/Sub channel used to announce cart writes.
const DefaultChannel = "medimart:cart:changed"

// Slot stores the cart record under a single Redis key and announces each
// write on a Pub/Sub channel tagged with the writer's origin.
type Slot struct {
	client  *goredis.Client
	key     string
	origin  string
	channel string
	logger  *zap.Logger
}

// SlotOption is a functional option for configuring the slot.
type SlotOption func(*Slot)

// WithChannel sets the Pub/Sub channel name.
func WithChannel(channel string) SlotOption {
	return func(s *Slot) {
		if channel != "" {
			s.channel = channel
		}
	}
}

// WithLogger sets the logger for the slot.
func WithLogger(logger *zap.Logger) SlotOption {
	return func(s *Slot) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewSlot wraps key for the execution context identified by origin.
// The caller keeps ownership of client.
func NewSlot(client *goredis.Client, key, origin string, opts ...SlotOption) *Slot {
	s := &Slot{
		client:  client,
		key:     key,
		origin:  origin,
		channel: DefaultChannel,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the record key.
func (s *Slot) Key() string { return s.key }

// Read fetches the record payload.
func (s *Slot) Read(ctx context.Context) ([]byte, error) {
	payload, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", s.key, err)
	}
	return payload, nil
}

// Write replaces the record and publishes the change in one MULTI/EXEC.
func (s *Slot) Write(ctx context.Context, payload []byte) error {
	envelope, err := json.Marshal(models.ChangeEnvelope{
		Key:       s.key,
		Origin:    s.origin,
		Timestamp: time.Now().UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("marshal change envelope: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, s.key, payload, 0)
		pipe.Publish(ctx, s.channel, envelope)
		return nil
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", s.key, err)
	}

	s.logger.Debug("cart record written", zap.String("key", s.key), zap.Int("bytes", len(payload)))
	return nil
}

// Watch subscribes to the change channel and invokes onChange for every
// write to this key made by another origin.
func (s *Slot) Watch(ctx context.Context, onChange func()) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel %s: %w", s.channel, err)
	}

	s.logger.Info("subscribed to cart change channel", zap.String("channel", s.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				s.logger.Warn("cart change channel closed")
				return nil
			}
			if s.ownWrite(msg.Payload) {
				continue
			}
			onChange()
		}
	}
}

// ownWrite reports whether the payload should be ignored by this slot.
func (s *Slot) ownWrite(payload string) bool {
	var envelope models.ChangeEnvelope
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		s.logger.Warn("ignoring malformed change envelope", zap.String("payload", payload), zap.Error(err))
		return true
	}
	return envelope.Key != s.key || envelope.Origin == s.origin
}

var (
	_ repository.Slot    = (*Slot)(nil)
	_ repository.Watcher = (*Slot)(nil)
)
