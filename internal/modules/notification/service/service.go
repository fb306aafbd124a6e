package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"fedlearn.dev/dashboard/internal/entity"
	"fedlearn.dev/dashboard/internal/modules/notification/dto"
	notifRepo "fedlearn.dev/dashboard/internal/modules/notification/repository"
	"fedlearn.dev/dashboard/pkg/apperror"
	"fedlearn.dev/dashboard/pkg/logger"
)

// State is a copy of one user's cached notifications.
type State struct {
	Items       []entity.Notification
	Unread      int
	LastFetched time.Time
	Loading     bool
	Error       string
}

type NotificationService interface {
	// Fetch returns the cache unless force is set or the debounce window has passed.
	Fetch(ctx context.Context, user entity.User, force bool) (State, error)
	MarkAsRead(ctx context.Context, user entity.User, id int64) error
	MarkAllAsRead(ctx context.Context, user entity.User) error
	Delete(ctx context.Context, user entity.User, id int64) error

	Unread(userID int64) []entity.Notification
	Read(userID int64) []entity.Notification
	Snapshot(userID int64) State
	Reset(userID int64)

	// Poll force-refreshes every given user that has no fetch in flight.
	Poll(ctx context.Context, users []entity.User)
	Subscribe(ctx context.Context, userID int64) (<-chan []byte, func(), error)
}

type userCache struct {
	mu          sync.Mutex
	items       []entity.Notification
	lastFetched time.Time
	loading     bool
	err         string
}

func (c *userCache) unread() int {
	n := 0
	for _, item := range c.items {
		if !item.IsRead {
			n++
		}
	}
	return n
}

func (c *userCache) state() State {
	items := make([]entity.Notification, len(c.items))
	copy(items, c.items)
	return State{
		Items:       items,
		Unread:      c.unread(),
		LastFetched: c.lastFetched,
		Loading:     c.loading,
		Error:       c.err,
	}
}

type notificationService struct {
	repo     notifRepo.NotificationRepository
	hub      Hub
	debounce time.Duration
	now      func() time.Time

	mu     sync.Mutex
	caches map[int64]*userCache
}

func NewNotificationService(repo notifRepo.NotificationRepository, hub Hub, debounce time.Duration) NotificationService {
	if hub == nil {
		hub = NewMemoryHub()
	}
	return &notificationService{
		repo:     repo,
		hub:      hub,
		debounce: debounce,
		now:      time.Now,
		caches:   make(map[int64]*userCache),
	}
}

// WithClock replaces the time source. Tests only.
func WithClock(s NotificationService, now func() time.Time) NotificationService {
	if impl, ok := s.(*notificationService); ok {
		impl.now = now
	}
	return s
}

func (s *notificationService) cache(userID int64) *userCache {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.caches[userID]
	if !ok {
		c = &userCache{}
		s.caches[userID] = c
	}
	return c
}

func (s *notificationService) Fetch(ctx context.Context, user entity.User, force bool) (State, error) {
	c := s.cache(user.ID)
	now := s.now()

	c.mu.Lock()
	if !force && !c.lastFetched.IsZero() && now.Sub(c.lastFetched) < s.debounce {
		st := c.state()
		c.mu.Unlock()
		return st, nil
	}
	c.loading = true
	c.err = ""
	known := make(map[int64]bool, len(c.items))
	for _, item := range c.items {
		known[item.ID] = true
	}
	baseline := !c.lastFetched.IsZero()
	c.mu.Unlock()

	items, err := s.repo.GetByUserID(ctx, user.ID)

	c.mu.Lock()
	c.loading = false
	if err != nil {
		c.items = nil
		c.err = apperror.Message(err, "Failed to fetch notifications")
		st := c.state()
		c.mu.Unlock()
		return st, err
	}
	if items == nil {
		items = []entity.Notification{}
	}
	c.items = items
	c.lastFetched = now
	st := c.state()
	c.mu.Unlock()

	if baseline {
		s.announce(ctx, user.ID, items, known, st.Unread)
	}
	return st, nil
}

func (s *notificationService) announce(ctx context.Context, userID int64, items []entity.Notification, known map[int64]bool, unread int) {
	for _, item := range items {
		if item.IsRead || known[item.ID] {
			continue
		}
		payload, err := json.Marshal(dto.Event{Type: "notification", Notification: item, UnreadCount: unread})
		if err != nil {
			continue
		}
		if err := s.hub.Publish(ctx, userID, payload); err != nil {
			logger.For(logger.NOTIFY).Warn("publishing notification failed", "user_id", userID, "error", err)
		}
	}
}

func (s *notificationService) MarkAsRead(ctx context.Context, user entity.User, id int64) error {
	c := s.cache(user.ID)

	c.mu.Lock()
	updated := make([]entity.Notification, len(c.items))
	for i, item := range c.items {
		if item.ID == id {
			item.IsRead = true
		}
		updated[i] = item
	}
	c.items = updated
	c.mu.Unlock()

	err := s.repo.MarkAsRead(ctx, user.ID, id)
	if err == nil {
		return nil
	}

	// the server copy is authoritative after a failed write
	_, _ = s.Fetch(ctx, user, true)
	c.mu.Lock()
	c.err = apperror.Message(err, "Failed to mark notification as read")
	c.mu.Unlock()
	return err
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, user entity.User) error {
	c := s.cache(user.ID)

	c.mu.Lock()
	previous := c.items
	updated := make([]entity.Notification, len(previous))
	for i, item := range previous {
		item.IsRead = true
		updated[i] = item
	}
	c.items = updated
	c.mu.Unlock()

	err := s.repo.MarkAllAsRead(ctx, user.ID)
	if err == nil {
		return nil
	}

	c.mu.Lock()
	c.items = previous
	c.err = apperror.Message(err, "Failed to mark all notifications as read")
	c.mu.Unlock()
	return err
}

func (s *notificationService) Delete(ctx context.Context, user entity.User, id int64) error {
	c := s.cache(user.ID)

	c.mu.Lock()
	previous := c.items
	kept := make([]entity.Notification, 0, len(previous))
	for _, item := range previous {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	c.items = kept
	c.mu.Unlock()

	err := s.repo.Delete(ctx, user.ID, id)
	if err == nil {
		return nil
	}

	c.mu.Lock()
	c.items = previous
	c.err = apperror.Message(err, "Failed to delete notification")
	c.mu.Unlock()
	return err
}

func (s *notificationService) filter(userID int64, read bool) []entity.Notification {
	c := s.cache(userID)
	c.mu.Lock()
	defer c.mu.Unlock()

	out := []entity.Notification{}
	for _, item := range c.items {
		if item.IsRead == read {
			out = append(out, item)
		}
	}
	return out
}

func (s *notificationService) Unread(userID int64) []entity.Notification {
	return s.filter(userID, false)
}

func (s *notificationService) Read(userID int64) []entity.Notification {
	return s.filter(userID, true)
}

func (s *notificationService) Snapshot(userID int64) State {
	c := s.cache(userID)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state()
}

func (s *notificationService) Reset(userID int64) {
	s.mu.Lock()
	delete(s.caches, userID)
	s.mu.Unlock()
}

func (s *notificationService) Poll(ctx context.Context, users []entity.User) {
	seen := make(map[int64]bool, len(users))
	for _, user := range users {
		if seen[user.ID] {
			continue
		}
		seen[user.ID] = true

		if s.Snapshot(user.ID).Loading {
			continue
		}
		if _, err := s.Fetch(ctx, user, true); err != nil {
			logger.For(logger.NOTIFY).Warn("notification poll failed", "user_id", user.ID, "error", err)
		}
	}
}

func (s *notificationService) Subscribe(ctx context.Context, userID int64) (<-chan []byte, func(), error) {
	return s.hub.Subscribe(ctx, userID)
}
