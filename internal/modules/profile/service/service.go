package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fedlearn.dev/dashboard/internal/entity"
	contribRepo "fedlearn.dev/dashboard/internal/modules/contribution/repository"
	leaderboard "fedlearn.dev/dashboard/internal/modules/leaderboard/service"
	notifService "fedlearn.dev/dashboard/internal/modules/notification/service"
	profileDto "fedlearn.dev/dashboard/internal/modules/profile/dto"
	"fedlearn.dev/dashboard/pkg/apperror"
	"fedlearn.dev/dashboard/pkg/bundle"
	commonDto "fedlearn.dev/dashboard/pkg/dto"
	"fedlearn.dev/dashboard/pkg/logger"
	"fedlearn.dev/dashboard/pkg/storage"
)

type ProfileService interface {
	GetCurrentProfile(ctx context.Context, user entity.User) (*profileDto.ProfileResponse, error)
	Contributions(ctx context.Context, user entity.User, page commonDto.PageQuery) (*commonDto.Paginated[entity.Contribution], error)
	Upload(ctx context.Context, user entity.User, input profileDto.UploadInput, file *profileDto.ContributionFile) (*profileDto.UploadResponse, error)
	DeleteContribution(ctx context.Context, user entity.User, contributionID int64) error
}

type profileService struct {
	repo          contribRepo.ContributionRepository
	notifications notifService.NotificationService
	mirror        storage.ArtifactStorage
	mirrorFolder  string
	now           func() time.Time
}

// NewProfileService accepts a nil mirror, which disables mirroring.
func NewProfileService(
	repo contribRepo.ContributionRepository,
	notifications notifService.NotificationService,
	mirror storage.ArtifactStorage,
	mirrorFolder string,
) ProfileService {
	return &profileService{
		repo:          repo,
		notifications: notifications,
		mirror:        mirror,
		mirrorFolder:  mirrorFolder,
		now:           time.Now,
	}
}

func (s *profileService) GetCurrentProfile(ctx context.Context, user entity.User) (*profileDto.ProfileResponse, error) {
	res := &profileDto.ProfileResponse{
		User:                user.Public(),
		RoleName:            user.Role.Name(),
		RecentNotifications: []entity.Notification{},
		DriveReady:          user.GDrive.CanUploadContributions(),
	}

	// the profile still renders when notifications are unavailable
	if st, err := s.notifications.Fetch(ctx, user, false); err == nil {
		recent := st.Items
		if len(recent) > profileDto.RecentNotificationCount {
			recent = recent[:profileDto.RecentNotificationCount]
		}
		res.RecentNotifications = recent
	}

	weekly := 0
	if user.Role.AtLeast(entity.RoleResearcher) {
		contributions, err := s.repo.ByResearcher(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if contributions == nil {
			contributions = []entity.Contribution{}
		}
		res.Contributions = contributions
		weekly = leaderboard.WeeklyPoints(contributions, s.now())
	}
	res.RankStatus = leaderboard.GetRankStatusWithWeekly(user.TotalPoints, weekly)
	return res, nil
}

func (s *profileService) Contributions(ctx context.Context, user entity.User, page commonDto.PageQuery) (*commonDto.Paginated[entity.Contribution], error) {
	contributions, err := s.repo.ByResearcher(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	out := commonDto.Paginate(contributions, page.Page, page.Limit)
	return &out, nil
}

func (s *profileService) Upload(ctx context.Context, user entity.User, input profileDto.UploadInput, file *profileDto.ContributionFile) (*profileDto.UploadResponse, error) {
	if !user.GDrive.CanUploadContributions() {
		return nil, apperror.New(http.StatusBadRequest, apperror.ErrDriveNotConfigured.Error(), apperror.ErrDriveNotConfigured)
	}
	if file == nil || file.Reader == nil || file.FileName == "" {
		return nil, apperror.Invalid(bundle.ErrEmpty.Error())
	}
	if input.ModelID <= 0 {
		return nil, apperror.Invalid("Please select a target model")
	}

	_, data, err := bundle.Inspect(file.FileName, file.Reader)
	if err != nil {
		switch {
		case errors.Is(err, bundle.ErrNotJSON), errors.Is(err, bundle.ErrMissingKeys),
			errors.Is(err, bundle.ErrUnsupported), errors.Is(err, bundle.ErrEmpty):
			return nil, apperror.Invalid(err.Error())
		}
		return nil, apperror.New(http.StatusBadRequest, "Failed to upload contribution", err)
	}

	log := logger.For(logger.UPSTREAM)
	mirrorURL := ""
	if s.mirror != nil {
		folder := fmt.Sprintf("%s/researcher_%d", s.mirrorFolder, user.ID)
		if url, err := s.mirror.Mirror(ctx, bytes.NewReader(data), folder, file.FileName); err != nil {
			log.Warn("contribution mirror failed", "user_id", user.ID, "file", file.FileName, "error", err)
		} else {
			mirrorURL = url
		}
	}

	contribution, err := s.repo.Upload(ctx, user.ID, input.ModelID, file.FileName, data)
	if err != nil {
		if mirrorURL != "" {
			if derr := s.mirror.Delete(context.WithoutCancel(ctx), mirrorURL); derr != nil {
				log.Warn("removing orphaned mirror failed", "url", mirrorURL, "error", derr)
			}
		}
		return nil, err
	}

	log.Info("contribution uploaded", "user_id", user.ID, "model_id", input.ModelID, "bytes", len(data))
	return &profileDto.UploadResponse{Contribution: contribution, MirrorURL: mirrorURL}, nil
}

func (s *profileService) DeleteContribution(ctx context.Context, user entity.User, contributionID int64) error {
	return s.repo.Delete(ctx, user.ID, contributionID)
}
