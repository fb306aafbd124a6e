package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fedlearn.dev/dashboard/internal/entity"
	sessionRepo "fedlearn.dev/dashboard/internal/modules/session/repository"
	"fedlearn.dev/dashboard/pkg/apperror"
	"fedlearn.dev/dashboard/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type SessionService interface {
	Start(ctx context.Context, user entity.User) (*entity.Session, error)
	// Check returns the live session or ErrSessionExpired, dropping stale
	// and unreadable records on the way.
	Check(ctx context.Context, id string) (*entity.Session, error)
	// Touch is Check followed by a timestamp refresh.
	Touch(ctx context.Context, id string) (*entity.Session, error)
	Update(ctx context.Context, id string, user entity.User) (*entity.Session, error)
	End(ctx context.Context, id string) error
	// Sweep deletes expired sessions and returns the affected user ids.
	Sweep(ctx context.Context) ([]int64, error)
	Active(ctx context.Context) ([]entity.Session, error)

	IssueToken(s *entity.Session) (string, error)
	ParseToken(token string) (string, error)
}

type sessionService struct {
	repo   sessionRepo.SessionRepository
	idle   time.Duration
	secret []byte
	now    func() time.Time
}

func NewSessionService(repo sessionRepo.SessionRepository, idle time.Duration, secret string) SessionService {
	return &sessionService{
		repo:   repo,
		idle:   idle,
		secret: []byte(secret),
		now:    time.Now,
	}
}

// WithClock replaces the time source. Tests only.
func WithClock(s SessionService, now func() time.Time) SessionService {
	if impl, ok := s.(*sessionService); ok {
		impl.now = now
	}
	return s
}

func (s *sessionService) Start(ctx context.Context, user entity.User) (*entity.Session, error) {
	sess := &entity.Session{
		ID:        uuid.NewString(),
		User:      user,
		Timestamp: s.now(),
	}
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, err
	}
	logger.For(logger.SESSION).Info("session started", "user_id", user.ID, "role", user.Role.Name())
	return sess, nil
}

func (s *sessionService) Check(ctx context.Context, id string) (*entity.Session, error) {
	if id == "" {
		return nil, apperror.ErrUnauthorized
	}

	sess, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.ErrSessionExpired
	}
	if errors.Is(err, sessionRepo.ErrCorrupt) {
		_ = s.repo.Delete(ctx, id)
		return nil, apperror.ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}

	if sess.Expired(s.now(), s.idle) {
		_ = s.repo.Delete(ctx, id)
		logger.For(logger.SESSION).Info("session expired", "user_id", sess.User.ID)
		return nil, apperror.ErrSessionExpired
	}
	return sess, nil
}

func (s *sessionService) Touch(ctx context.Context, id string) (*entity.Session, error) {
	sess, err := s.Check(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.Timestamp = s.now()
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *sessionService) Update(ctx context.Context, id string, user entity.User) (*entity.Session, error) {
	sess, err := s.Check(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.User = user
	sess.Timestamp = s.now()
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *sessionService) End(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *sessionService) Sweep(ctx context.Context) ([]int64, error) {
	sessions, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var expired []int64
	for _, sess := range sessions {
		if !sess.Expired(now, s.idle) {
			continue
		}
		if err := s.repo.Delete(ctx, sess.ID); err != nil {
			return expired, fmt.Errorf("deleting session: %w", err)
		}
		expired = append(expired, sess.User.ID)
	}
	if len(expired) > 0 {
		logger.For(logger.SESSION).Info("expired sessions removed", "count", len(expired))
	}
	return expired, nil
}

func (s *sessionService) Active(ctx context.Context) ([]entity.Session, error) {
	sessions, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	live := sessions[:0]
	for _, sess := range sessions {
		if !sess.Expired(now, s.idle) {
			live = append(live, sess)
		}
	}
	return live, nil
}

// IssueToken signs the session id. Expiry is enforced by the session
// record, not by the token.
func (s *sessionService) IssueToken(sess *entity.Session) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:  sess.ID,
		IssuedAt: jwt.NewNumericDate(s.now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *sessionService) ParseToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return "", apperror.ErrUnauthorized
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", apperror.ErrUnauthorized
	}
	return claims.Subject, nil
}
