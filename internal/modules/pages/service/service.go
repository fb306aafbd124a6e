package service

import (
	"context"

	"fedlearn.dev/dashboard/internal/entity"
	modelService "fedlearn.dev/dashboard/internal/modules/model/service"
	notifService "fedlearn.dev/dashboard/internal/modules/notification/service"
	"fedlearn.dev/dashboard/internal/modules/pages/dto"
	profileService "fedlearn.dev/dashboard/internal/modules/profile/service"
	commonDto "fedlearn.dev/dashboard/pkg/dto"
	"fedlearn.dev/dashboard/pkg/logger"
)

type quickAction struct {
	dto.QuickAction
	minRole entity.Role
}

var quickActions = []quickAction{
	{QuickAction: dto.QuickAction{Name: "Platform Guide", Description: "Learn how to use and contribute to the platform", Href: "/guide", Highlight: true}},
	{QuickAction: dto.QuickAction{Name: "Download Model", Description: "Download the latest global model for local training", Href: "/models"}},
	{QuickAction: dto.QuickAction{Name: "Contribute Weights", Description: "Upload your locally trained model weights", Href: "/contributions/upload"}, minRole: entity.RoleResearcher},
	{QuickAction: dto.QuickAction{Name: "Manage Users", Description: "Approve new users and manage permissions", Href: "/admin/users"}, minRole: entity.RoleAdmin},
	{QuickAction: dto.QuickAction{Name: "View Analytics", Description: "Check platform statistics and performance", Href: "/admin/analytics"}, minRole: entity.RoleAdmin},
}

// QuickActions lists the dashboard shortcuts the role may use.
func QuickActions(role entity.Role) []dto.QuickAction {
	out := make([]dto.QuickAction, 0, len(quickActions))
	for _, a := range quickActions {
		if a.minRole == 0 || role.AtLeast(a.minRole) {
			out = append(out, a.QuickAction)
		}
	}
	return out
}

type PageService interface {
	Dashboard(ctx context.Context, user entity.User) *dto.DashboardPage
	Notifications(ctx context.Context, user entity.User, query dto.NotificationsQuery, refresh bool) *dto.NotificationsPage
	UseModel(ctx context.Context, user entity.User) (*dto.UseModelPage, error)
	Upload(ctx context.Context, user entity.User) (*dto.UploadPage, error)
}

type pageService struct {
	models        modelService.ModelService
	notifications notifService.NotificationService
	profiles      profileService.ProfileService
}

func NewPageService(models modelService.ModelService, notifications notifService.NotificationService, profiles profileService.ProfileService) PageService {
	return &pageService{models: models, notifications: notifications, profiles: profiles}
}

func activeModels(models []entity.Model) []entity.Model {
	out := []entity.Model{}
	for _, m := range models {
		if m.Status == entity.ModelStatusActive {
			out = append(out, m)
		}
	}
	return out
}

// Dashboard never fails: a section that cannot be loaded shows zero and is
// named in Warnings.
func (s *pageService) Dashboard(ctx context.Context, user entity.User) *dto.DashboardPage {
	log := logger.For(logger.SYSTEM).With("user_id", user.ID)
	page := &dto.DashboardPage{QuickActions: QuickActions(user.Role)}

	var active []entity.Model
	if models, err := s.models.All(ctx, user); err != nil {
		log.Warn("dashboard models unavailable", "error", err)
		page.Warnings = append(page.Warnings, "models")
	} else {
		active = activeModels(models)
	}
	if len(active) > 0 {
		latest := active[0]
		page.LatestModel = &latest
	}

	var contributions any = dto.NotAvailable
	if user.Role.AtLeast(entity.RoleResearcher) {
		contributions = 0
		if res, err := s.profiles.Contributions(ctx, user, commonDto.PageQuery{Page: 1, Limit: 1}); err != nil {
			log.Warn("dashboard contributions unavailable", "error", err)
			page.Warnings = append(page.Warnings, "contributions")
		} else {
			contributions = res.Meta.TotalItems
		}
	}

	unread := 0
	if state, err := s.notifications.Fetch(ctx, user, false); err != nil {
		page.Warnings = append(page.Warnings, "notifications")
	} else {
		unread = state.Unread
	}

	page.Stats = []dto.Stat{
		{Name: "Active Models", Value: len(active)},
		{Name: "Your Contributions", Value: contributions},
		{Name: "Unread Notifications", Value: unread},
		{Name: "Your Role", Value: user.Role.Name()},
	}
	return page
}

func (s *pageService) Notifications(ctx context.Context, user entity.User, query dto.NotificationsQuery, refresh bool) *dto.NotificationsPage {
	filter := query.Filter
	if filter == "" {
		filter = "all"
	}

	page := &dto.NotificationsPage{Filter: filter}
	state, err := s.notifications.Fetch(ctx, user, refresh)
	if err != nil {
		page.Error = err.Error()
	}

	var items []entity.Notification
	switch filter {
	case "unread":
		items = s.notifications.Unread(user.ID)
	case "read":
		items = s.notifications.Read(user.ID)
	default:
		items = state.Items
	}
	if items == nil {
		items = []entity.Notification{}
	}

	page.Notifications = commonDto.Paginate(items, query.Page, query.Limit)
	page.UnreadCount = state.Unread
	return page
}

func (s *pageService) UseModel(ctx context.Context, user entity.User) (*dto.UseModelPage, error) {
	models, err := s.models.All(ctx, user)
	if err != nil {
		return nil, err
	}
	return &dto.UseModelPage{Models: activeModels(models)}, nil
}

func (s *pageService) Upload(ctx context.Context, user entity.User) (*dto.UploadPage, error) {
	models, err := s.models.All(ctx, user)
	if err != nil {
		return nil, err
	}
	return &dto.UploadPage{
		Models:     activeModels(models),
		DriveReady: user.GDrive.CanUploadContributions(),
	}, nil
}
