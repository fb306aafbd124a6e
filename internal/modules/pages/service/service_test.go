package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"fedlearn.dev/dashboard/internal/entity"
	counterRepo "fedlearn.dev/dashboard/internal/modules/analytics/repository"
	auditService "fedlearn.dev/dashboard/internal/modules/audit/service"
	contribRepo "fedlearn.dev/dashboard/internal/modules/contribution/repository"
	modelRepo "fedlearn.dev/dashboard/internal/modules/model/repository"
	modelService "fedlearn.dev/dashboard/internal/modules/model/service"
	notifRepo "fedlearn.dev/dashboard/internal/modules/notification/repository"
	notifService "fedlearn.dev/dashboard/internal/modules/notification/service"
	"fedlearn.dev/dashboard/internal/modules/pages/dto"
	profileService "fedlearn.dev/dashboard/internal/modules/profile/service"
	searchService "fedlearn.dev/dashboard/internal/modules/search/service"
	"fedlearn.dev/dashboard/internal/testutil"
	commonDto "fedlearn.dev/dashboard/pkg/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	member     = entity.User{ID: 2, Username: "bob", Role: entity.RoleMember}
	researcher = entity.User{ID: 3, Username: "alice", Role: entity.RoleResearcher}
	admin      = entity.User{ID: 4, Username: "root", Role: entity.RoleAdmin}
)

func newService(t *testing.T) (*testutil.Platform, PageService) {
	p := testutil.NewPlatform(t)
	for _, u := range []entity.User{member, researcher, admin} {
		p.AddUser(u, "pw")
	}
	p.AddModel(entity.Model{ID: 10, Name: "mnist", Version: 3, Status: entity.ModelStatusActive, Metrics: map[string]float64{"accuracy": 0.9}})
	p.AddModel(entity.Model{ID: 11, Name: "mnist", Version: 4, Status: entity.ModelStatusExperimental})
	p.AddContribution(entity.Contribution{ID: 100, ResearcherID: researcher.ID, ModelID: 10, Status: "pending"}, "")
	p.AddContribution(entity.Contribution{ID: 101, ResearcherID: researcher.ID, ModelID: 10, Status: "approved"}, "")
	p.AddNotification(member.ID, entity.Notification{ID: 1, Message: "welcome"})
	p.AddNotification(member.ID, entity.Notification{ID: 2, Message: "old", IsRead: true})

	api := p.Client()
	models := modelService.NewModelService(
		modelRepo.NewModelRepository(api),
		searchService.NewMemoryModelIndex(),
		counterRepo.NewMemoryDownloadCounter(),
		nil,
		auditService.NewAuditService(nil),
		time.Minute,
	)
	notifications := notifService.NewNotificationService(notifRepo.NewNotificationRepository(api), nil, 30*time.Second)
	profiles := profileService.NewProfileService(contribRepo.NewContributionRepository(api), notifications, nil, "")
	return p, NewPageService(models, notifications, profiles)
}

func stat(page *dto.DashboardPage, name string) any {
	for _, s := range page.Stats {
		if s.Name == name {
			return s.Value
		}
	}
	return nil
}

func actionNames(actions []dto.QuickAction) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.Name
	}
	return out
}

func TestDashboardForMember(t *testing.T) {
	p, svc := newService(t)

	page := svc.Dashboard(context.Background(), member)
	assert.Equal(t, 1, stat(page, "Active Models"))
	assert.Equal(t, dto.NotAvailable, stat(page, "Your Contributions"))
	assert.Equal(t, 1, stat(page, "Unread Notifications"))
	assert.Equal(t, "Member", stat(page, "Your Role"))
	require.NotNil(t, page.LatestModel)
	assert.Equal(t, int64(10), page.LatestModel.ID)
	assert.Empty(t, page.Warnings)
	assert.Zero(t, p.CallCount("GET /contributions/"))
}

func TestDashboardForResearcherCountsContributions(t *testing.T) {
	_, svc := newService(t)

	page := svc.Dashboard(context.Background(), researcher)
	assert.Equal(t, int64(2), stat(page, "Your Contributions"))
	assert.Equal(t, []string{"Platform Guide", "Download Model", "Contribute Weights"}, actionNames(page.QuickActions))
}

func TestDashboardSurvivesUpstreamFailures(t *testing.T) {
	p, svc := newService(t)
	p.Fail("GET /models/", http.StatusInternalServerError, "", 0)
	p.Fail("GET /notifications/", http.StatusInternalServerError, "", 0)

	page := svc.Dashboard(context.Background(), member)
	assert.Equal(t, 0, stat(page, "Active Models"))
	assert.Equal(t, 0, stat(page, "Unread Notifications"))
	assert.Nil(t, page.LatestModel)
	assert.ElementsMatch(t, []string{"models", "notifications"}, page.Warnings)
}

func TestQuickActionsByRole(t *testing.T) {
	assert.Equal(t, []string{"Platform Guide", "Download Model"}, actionNames(QuickActions(entity.RoleVisitor)))
	assert.Len(t, QuickActions(entity.RoleAdmin), 5)
	assert.Len(t, QuickActions(0), 2)
}

func TestNotificationsPageFilters(t *testing.T) {
	_, svc := newService(t)
	ctx := context.Background()

	page := svc.Notifications(ctx, member, dto.NotificationsQuery{Filter: "unread"}, false)
	assert.Equal(t, "unread", page.Filter)
	require.Len(t, page.Notifications.Data, 1)
	assert.Equal(t, "welcome", page.Notifications.Data[0].Message)
	assert.Equal(t, 1, page.UnreadCount)

	page = svc.Notifications(ctx, member, dto.NotificationsQuery{PageQuery: commonDto.PageQuery{Page: 1}}, false)
	assert.Equal(t, "all", page.Filter)
	assert.Len(t, page.Notifications.Data, 2)
}

func TestUploadPage(t *testing.T) {
	_, svc := newService(t)
	user := researcher
	user.GDrive = &entity.GDriveConfig{ClientID: "cid", ContributionsURL: "https://drive.google.com/drive/folders/abc"}

	page, err := svc.Upload(context.Background(), user)
	require.NoError(t, err)
	assert.True(t, page.DriveReady)
	require.Len(t, page.Models, 1)

	page, err = svc.Upload(context.Background(), researcher)
	require.NoError(t, err)
	assert.False(t, page.DriveReady)
}

func TestGuideHasAllTabs(t *testing.T) {
	tabs := Guide()
	require.Len(t, tabs, 4)
	assert.Equal(t, "code", tabs[3].ID)
	assert.Len(t, tabs[3].Examples, 2)
}
