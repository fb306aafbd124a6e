package repository

import (
	"context"
	"net/http"

	"fedlearn.dev/dashboard/internal/entity"
	"fedlearn.dev/dashboard/pkg/apiclient"
	"fedlearn.dev/dashboard/pkg/apperror"
)

const setupFallback = "Failed to update Google Drive settings. Please check your credentials and try again."

type AuthRepository interface {
	Login(ctx context.Context, username, password string) (*entity.User, error)
	GDriveConfig(ctx context.Context, userID int64) (*entity.GDriveConfig, error)
	SetupGDrive(ctx context.Context, userID int64, cfg entity.GDriveConfig) error
}

type authRepository struct {
	api *apiclient.Client
}

func NewAuthRepository(api *apiclient.Client) AuthRepository {
	return &authRepository{api: api}
}

func (r *authRepository) Login(ctx context.Context, username, password string) (*entity.User, error) {
	var out struct {
		User    *entity.User `json:"user"`
		Message string       `json:"message"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := apiclient.Do(r.api.R(ctx).SetBody(body), http.MethodPost, "/login/", &out, "Login failed"); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, apperror.New(http.StatusBadGateway, "Login failed", apperror.ErrUpstream)
	}
	return out.User, nil
}

// GDriveConfig returns nil when the user has not linked a Drive account.
func (r *authRepository) GDriveConfig(ctx context.Context, userID int64) (*entity.GDriveConfig, error) {
	var out struct {
		GDrive *entity.GDriveConfig `json:"gdrive"`
	}
	req := r.api.R(ctx).SetQueryParam("user_id", apiclient.ID(userID))
	if err := apiclient.Do(req, http.MethodGet, "/users/gdrive-config/", &out, "Failed to load Google Drive configuration"); err != nil {
		return nil, err
	}
	if out.GDrive == nil || out.GDrive.ClientID == "" {
		return nil, nil
	}
	return out.GDrive, nil
}

func (r *authRepository) SetupGDrive(ctx context.Context, userID int64, cfg entity.GDriveConfig) error {
	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	body := map[string]any{"user_id": userID, "gdrive": cfg}
	if err := apiclient.Do(r.api.R(ctx).SetBody(body), http.MethodPost, "/users/gdrive-setup/", &out, setupFallback); err != nil {
		return err
	}
	if !out.Success {
		msg := out.Message
		if msg == "" {
			msg = setupFallback
		}
		return apperror.New(http.StatusBadGateway, msg, apperror.ErrUpstream)
	}
	return nil
}
