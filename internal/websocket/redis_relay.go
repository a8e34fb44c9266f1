package websocket

import (
	"context"
	"fmt"
	"sync"
	"time"

	"refurbstock/internal/logger"

	"github.com/redis/go-redis/v9"
)

// RedisRelay shares events between API instances over a redis channel.
type RedisRelay struct {
	log        *logger.Logger
	client     *redis.Client
	channel    string
	cancelFunc context.CancelFunc
	mu         sync.Mutex
}

func NewRedisRelay(log *logger.Logger, address, password, channel string) (*RedisRelay, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisRelay{
		log:     log.With("component", "RedisRelay"),
		client:  rdb,
		channel: channel,
	}, nil
}

// Start subscribes to the channel and feeds every message into the hub's local clients.
func (r *RedisRelay) Start(hub *Hub) error {
	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.cancelFunc = cancel
	r.mu.Unlock()

	pubsub := r.client.Subscribe(ctx, r.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe to redis channel: %w", err)
	}
	r.log.Info("Subscribed to redis channel", "channel", r.channel)

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					r.log.Debug("Redis subscription closed")
					return
				}
				hub.localBroadcast([]byte(msg.Payload))
			}
		}
	}()
	return nil
}

func (r *RedisRelay) Publish(ctx context.Context, payload []byte) error {
	return r.client.Publish(ctx, r.channel, payload).Err()
}

func (r *RedisRelay) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelFunc != nil {
		r.cancelFunc()
		r.cancelFunc = nil
	}
	return r.client.Close()
}
