package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"fedlearn.dev/dashboard/internal/entity"
	authRepo "fedlearn.dev/dashboard/internal/modules/auth/repository"
	"fedlearn.dev/dashboard/internal/modules/auth/dto"
	sessionService "fedlearn.dev/dashboard/internal/modules/session/service"
	"fedlearn.dev/dashboard/pkg/apperror"
	"fedlearn.dev/dashboard/pkg/logger"
	"fedlearn.dev/dashboard/pkg/ratelimit"
	"fedlearn.dev/dashboard/pkg/validator"
)

// NotificationResetter drops a user's cached notifications.
type NotificationResetter interface {
	Reset(userID int64)
}

type AuthService interface {
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	Logout(ctx context.Context, sessionID string, user entity.User) error
	Session(ctx context.Context, sessionID string) (*dto.SessionResponse, error)
	GDrive(ctx context.Context, user entity.User) (*dto.GDriveResponse, error)
	SetupGDrive(ctx context.Context, sessionID string, user entity.User, input dto.GDriveInput) (*entity.User, error)
}

type authService struct {
	repo          authRepo.AuthRepository
	sessions      sessionService.SessionService
	notifications NotificationResetter
	limiter       *ratelimit.Limiter
	loginRate     time.Duration
	idle          time.Duration
}

func NewAuthService(
	repo authRepo.AuthRepository,
	sessions sessionService.SessionService,
	notifications NotificationResetter,
	limiter *ratelimit.Limiter,
	loginRate, idle time.Duration,
) AuthService {
	return &authService{
		repo:          repo,
		sessions:      sessions,
		notifications: notifications,
		limiter:       limiter,
		loginRate:     loginRate,
		idle:          idle,
	}
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, apperror.Invalid("Please enter username and password")
	}

	ok, err := s.limiter.Allow(ctx, "login:"+strings.ToLower(username), "login", s.loginRate)
	if err != nil {
		logger.For(logger.SESSION).Warn("login throttle check failed", "error", err)
	} else if !ok {
		return nil, apperror.New(http.StatusTooManyRequests, "Too many login attempts, please wait a moment", apperror.ErrRateLimitExceeded)
	}

	user, err := s.repo.Login(ctx, username, input.Password)
	if err != nil {
		return nil, err
	}

	// login answers without Drive details; the dashboard needs them for upload gating
	gdrive, err := s.repo.GDriveConfig(ctx, user.ID)
	if err != nil {
		logger.For(logger.SESSION).Warn("could not load drive config at login", "user_id", user.ID, "error", err)
	} else {
		user.GDrive = gdrive
	}

	sess, err := s.sessions.Start(ctx, *user)
	if err != nil {
		return nil, err
	}
	token, err := s.sessions.IssueToken(sess)
	if err != nil {
		return nil, apperror.New(http.StatusInternalServerError, "Login failed", err)
	}

	logger.For(logger.SESSION).Info("user signed in", "user_id", user.ID, "role", user.Role.Name())
	return &dto.AuthResponse{
		User:      user.Public(),
		Token:     token,
		ExpiresIn: int64(s.idle.Seconds()),
	}, nil
}

func (s *authService) Logout(ctx context.Context, sessionID string, user entity.User) error {
	if s.notifications != nil {
		s.notifications.Reset(user.ID)
	}
	if err := s.sessions.End(ctx, sessionID); err != nil {
		return err
	}
	logger.For(logger.SESSION).Info("user signed out", "user_id", user.ID)
	return nil
}

func (s *authService) Session(ctx context.Context, sessionID string) (*dto.SessionResponse, error) {
	sess, err := s.sessions.Check(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &dto.SessionResponse{
		User:         sess.User.Public(),
		LastActivity: sess.Timestamp.UTC().Format(time.RFC3339),
	}, nil
}

func (s *authService) GDrive(ctx context.Context, user entity.User) (*dto.GDriveResponse, error) {
	cfg, err := s.repo.GDriveConfig(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &dto.GDriveResponse{GDrive: cfg.Redacted(), Configured: cfg != nil}, nil
}

func (s *authService) SetupGDrive(ctx context.Context, sessionID string, user entity.User, input dto.GDriveInput) (*entity.User, error) {
	cfg := entity.GDriveConfig{
		ClientID:         strings.TrimSpace(input.ClientID),
		ClientSecret:     strings.TrimSpace(input.ClientSecret),
		RefreshToken:     strings.TrimSpace(input.RefreshToken),
		ContributionsURL: strings.TrimSpace(input.ContributionsURL),
		ModelsURL:        strings.TrimSpace(input.ModelsURL),
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, apperror.Invalid("Please fill in all required fields")
	}
	if cfg.ContributionsURL != "" && !validator.IsDriveFolderURL(cfg.ContributionsURL) {
		return nil, apperror.Invalid("Invalid contributions folder URL format")
	}
	if cfg.ModelsURL != "" && !validator.IsDriveFolderURL(cfg.ModelsURL) {
		return nil, apperror.Invalid("Invalid models folder URL format")
	}

	if err := s.repo.SetupGDrive(ctx, user.ID, cfg); err != nil {
		return nil, err
	}

	user.GDrive = &cfg
	if _, err := s.sessions.Update(ctx, sessionID, user); err != nil {
		return nil, err
	}
	logger.For(logger.SESSION).Info("drive settings updated", "user_id", user.ID)

	out := user.Public()
	return &out, nil
}
