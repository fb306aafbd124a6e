package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"fedlearn.dev/dashboard/internal/entity"
	"fedlearn.dev/dashboard/pkg/apperror"
	"github.com/redis/go-redis/v9"
)

type SessionRepository interface {
	Save(ctx context.Context, s *entity.Session) error
	FindByID(ctx context.Context, id string) (*entity.Session, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]entity.Session, error)
}

const (
	sessionKeyPrefix = "session:"
	activeSetKey     = "sessions:active"
)

// ErrCorrupt marks a stored session that could not be decoded.
var ErrCorrupt = errors.New("corrupt session record")

type redisSessionRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisSessionRepository stores sessions as JSON with a TTL of ttl,
// renewed on every save.
func NewRedisSessionRepository(rdb *redis.Client, ttl time.Duration) SessionRepository {
	return &redisSessionRepository{rdb: rdb, ttl: ttl}
}

func (r *redisSessionRepository) Save(ctx context.Context, s *entity.Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+s.ID, payload, r.ttl)
	pipe.SAdd(ctx, activeSetKey, s.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (r *redisSessionRepository) FindByID(ctx context.Context, id string) (*entity.Session, error) {
	raw, err := r.rdb.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	var s entity.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &s, nil
}

func (r *redisSessionRepository) Delete(ctx context.Context, id string) error {
	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, sessionKeyPrefix+id)
	pipe.SRem(ctx, activeSetKey, id)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns every decodable session. Ids whose keys already expired in
// redis are pruned from the active set.
func (r *redisSessionRepository) List(ctx context.Context) ([]entity.Session, error) {
	ids, err := r.rdb.SMembers(ctx, activeSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	sessions := make([]entity.Session, 0, len(ids))
	for _, id := range ids {
		s, err := r.FindByID(ctx, id)
		switch {
		case errors.Is(err, apperror.ErrNotFound):
			r.rdb.SRem(ctx, activeSetKey, id)
		case errors.Is(err, ErrCorrupt):
			_ = r.Delete(ctx, id)
		case err != nil:
			return nil, err
		default:
			sessions = append(sessions, *s)
		}
	}
	return sessions, nil
}

type memorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]entity.Session
}

// NewMemorySessionRepository keeps sessions in process memory.
func NewMemorySessionRepository() SessionRepository {
	return &memorySessionRepository{sessions: make(map[string]entity.Session)}
}

func (r *memorySessionRepository) Save(_ context.Context, s *entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = *s
	return nil
}

func (r *memorySessionRepository) FindByID(_ context.Context, id string) (*entity.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return &s, nil
}

func (r *memorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *memorySessionRepository) List(_ context.Context) ([]entity.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out, nil
}
