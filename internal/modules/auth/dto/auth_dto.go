package dto

import "fedlearn.dev/dashboard/internal/entity"

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	User      entity.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresIn int64       `json:"expires_in"`
}

type SessionResponse struct {
	User         entity.User `json:"user"`
	LastActivity string      `json:"last_activity"`
}

// GDriveInput is checked by the service so the messages match the setup form.
type GDriveInput struct {
	ClientID         string `json:"client_id"`
	ClientSecret     string `json:"client_secret"`
	RefreshToken     string `json:"refresh_token"`
	ContributionsURL string `json:"contributions_url"`
	ModelsURL        string `json:"models_url"`
}

type GDriveResponse struct {
	GDrive     *entity.GDriveConfig `json:"gdrive"`
	Configured bool                 `json:"configured"`
}
