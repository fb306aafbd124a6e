package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Hub fans notification events out to websocket subscribers.
type Hub interface {
	Publish(ctx context.Context, userID int64, payload []byte) error
	// Subscribe returns a channel of payloads and a function releasing it.
	Subscribe(ctx context.Context, userID int64) (<-chan []byte, func(), error)
}

func channelName(userID int64) string {
	return fmt.Sprintf("user_notifications:%d", userID)
}

type redisHub struct {
	rdb *redis.Client
}

// NewRedisHub publishes on user_notifications:<id> so every server instance
// can deliver to its own sockets.
func NewRedisHub(rdb *redis.Client) Hub {
	return &redisHub{rdb: rdb}
}

func (h *redisHub) Publish(ctx context.Context, userID int64, payload []byte) error {
	return h.rdb.Publish(ctx, channelName(userID), payload).Err()
}

func (h *redisHub) Subscribe(ctx context.Context, userID int64) (<-chan []byte, func(), error) {
	pubsub := h.rdb.Subscribe(ctx, channelName(userID))

	// Wait for confirmation that subscription is created
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, err
	}

	out := make(chan []byte, 16)
	done := make(chan struct{})
	go func() {
		defer close(out)
		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-done:
					return
				}
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return out, func() {
		once.Do(func() {
			close(done)
			pubsub.Close()
		})
	}, nil
}

type memoryHub struct {
	mu   sync.Mutex
	subs map[int64]map[chan []byte]struct{}
}

// NewMemoryHub delivers within this process only.
func NewMemoryHub() Hub {
	return &memoryHub{subs: make(map[int64]map[chan []byte]struct{})}
}

func (h *memoryHub) Publish(_ context.Context, userID int64, payload []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[userID] {
		select {
		case ch <- payload:
		default:
			// slow subscriber, drop
		}
	}
	return nil
}

func (h *memoryHub) Subscribe(_ context.Context, userID int64) (<-chan []byte, func(), error) {
	ch := make(chan []byte, 16)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan []byte]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], ch)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}, nil
}
