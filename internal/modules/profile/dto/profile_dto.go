package dto

import (
	"io"

	"fedlearn.dev/dashboard/internal/entity"
	leaderboardDto "fedlearn.dev/dashboard/internal/modules/leaderboard/dto"
)

// RecentNotificationCount is how many notifications the profile shows.
const RecentNotificationCount = 5

// ProfileResponse is returned when viewing the current user's profile.
type ProfileResponse struct {
	User                entity.User               `json:"user"`
	RoleName            string                    `json:"role_name"`
	RankStatus          leaderboardDto.RankStatus `json:"rank_status"`
	RecentNotifications []entity.Notification     `json:"recent_notifications"`
	// Contributions is only filled for researchers and admins.
	Contributions []entity.Contribution `json:"contributions,omitempty"`
	DriveReady    bool                  `json:"drive_ready"`
}

// ContributionFile is the weights file a researcher uploads.
type ContributionFile struct {
	Reader   io.Reader
	FileName string
}

type UploadInput struct {
	ModelID int64 `form:"model_id"`
}

type UploadResponse struct {
	Contribution *entity.Contribution `json:"contribution"`
	MirrorURL    string               `json:"mirror_url,omitempty"`
}
