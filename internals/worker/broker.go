package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Message is one raw task message plus the handle needed to acknowledge it.
type Message struct {
	ID   string
	Body []byte
}

// Broker is the queue the worker consumes tasks from and reports back
// through. Receive returns nil when no message is available.
type Broker interface {
	Receive(ctx context.Context) (*Message, error)
	Ack(ctx context.Context, msg *Message) error
	Reply(ctx context.Context, taskID, result string) error
	PublishProgress(ctx context.Context, taskID string, event ProgressEvent) error
}

const (
	taskQueueKey       = "memforge:tasks:volatility"
	resultKeyPrefix    = "memforge:results:"
	progressChanPrefix = "memforge:progress:"

	resultTTL = 24 * time.Hour
)

// RedisBroker consumes tasks from a Redis list and replies on a per-task
// result key; progress goes out on a per-task pub/sub channel.
type RedisBroker struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRedisBroker(redisURL string, logger *logrus.Logger) (*RedisBroker, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return &RedisBroker{
		client: redis.NewClient(opt),
		logger: logger,
	}, nil
}

func (b *RedisBroker) Receive(ctx context.Context) (*Message, error) {
	values, err := b.client.BLPop(ctx, 5*time.Second, taskQueueKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pull task: %w", err)
	}
	// BLPop returns [key, value]
	return &Message{ID: taskQueueKey, Body: []byte(values[1])}, nil
}

// Ack is a no-op for Redis: BLPop already removed the message.
func (b *RedisBroker) Ack(ctx context.Context, msg *Message) error {
	return nil
}

func (b *RedisBroker) Reply(ctx context.Context, taskID, result string) error {
	key := resultKeyPrefix + taskID
	if err := b.client.LPush(ctx, key, result).Err(); err != nil {
		return fmt.Errorf("failed to push task result: %w", err)
	}
	if err := b.client.Expire(ctx, key, resultTTL).Err(); err != nil {
		b.logger.WithError(err).WithField("key", key).Warn("Failed to set result TTL")
	}
	return nil
}

func (b *RedisBroker) PublishProgress(ctx context.Context, taskID string, event ProgressEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal progress event: %w", err)
	}
	return b.client.Publish(ctx, progressChanPrefix+taskID, payload).Err()
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}
