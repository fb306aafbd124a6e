package service

import (
	"context"
	"net/http"
	"testing"

	"fedlearn.dev/dashboard/internal/entity"
	adminRepo "fedlearn.dev/dashboard/internal/modules/admin/repository"
	counterRepo "fedlearn.dev/dashboard/internal/modules/analytics/repository"
	"fedlearn.dev/dashboard/internal/modules/analytics/dto"
	contribRepo "fedlearn.dev/dashboard/internal/modules/contribution/repository"
	modelRepo "fedlearn.dev/dashboard/internal/modules/model/repository"
	"fedlearn.dev/dashboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = entity.User{ID: 1, Username: "root", Role: entity.RoleAdmin, IsActive: true}

func newService(t *testing.T) (*testutil.Platform, counterRepo.DownloadCounter, AnalyticsService) {
	p := testutil.NewPlatform(t)
	p.AddUser(admin, "pw")
	p.AddUser(entity.User{ID: 2, Username: "alice", Role: entity.RoleResearcher, TotalPoints: 300, IsActive: true}, "pw")
	p.AddUser(entity.User{ID: 3, Username: "bob", Role: entity.RoleResearcher, TotalPoints: 40}, "pw")
	p.AddUser(entity.User{ID: 4, Username: "carol", Role: entity.RoleMember, IsActive: true}, "pw")
	p.AddUser(entity.User{ID: 5, Username: "dave"}, "pw")

	p.AddModel(entity.Model{ID: 10, Name: "mnist", Version: 2, Status: entity.ModelStatusActive,
		Metrics: map[string]float64{"accuracy": 0.91, "recall": 0.8}})
	p.AddModel(entity.Model{ID: 11, Name: "mnist", Version: 1, Status: entity.ModelStatusArchived,
		Metrics: map[string]float64{"accuracy": 0.85}})
	p.AddModel(entity.Model{ID: 12, Name: "mnist", Version: 3, Status: entity.ModelStatusExperimental,
		Metrics: map[string]float64{"accuracy": 0.93, "recall": 0.82}})

	for i, st := range []string{"approved", "aggregated", "pending", "rejected"} {
		p.AddContribution(entity.Contribution{ID: int64(100 + i), ResearcherID: 2, ModelID: 10, Status: st}, "")
	}

	api := p.Client()
	counter := counterRepo.NewMemoryDownloadCounter()
	svc := NewAnalyticsService(
		adminRepo.NewAdminRepository(api),
		contribRepo.NewContributionRepository(api),
		modelRepo.NewModelRepository(api),
		counter,
	)
	return p, counter, svc
}

func TestDashboardSummaryAndBreakdowns(t *testing.T) {
	_, _, svc := newService(t)

	res, err := svc.Dashboard(context.Background(), admin, dto.AnalyticsQuery{})
	require.NoError(t, err)

	// The platform leaves the requesting admin out of the user list.
	assert.Equal(t, dto.Summary{
		TotalUsers:            4,
		ActiveUsers:           2,
		TotalResearchers:      2,
		TotalContributions:    4,
		ApprovedContributions: 2,
		TotalModels:           3,
		ActiveModels:          1,
	}, res.Summary)

	assert.Equal(t, []dto.Slice{
		{Label: "Visitors", Count: 1},
		{Label: "Members", Count: 1},
		{Label: "Researchers", Count: 2},
		{Label: "Admins", Count: 0},
	}, res.RoleBreakdown)
	assert.Contains(t, res.StatusBreakdown, dto.Slice{Label: "Pending", Count: 1})
	assert.Contains(t, res.StatusBreakdown, dto.Slice{Label: "Error", Count: 0})

	require.Len(t, res.TopContributors, 2)
	assert.Equal(t, "alice", res.TopContributors[0].Username)
	assert.Equal(t, "Collaborator", res.TopContributors[0].RankStatus.RankName)
}

func TestDashboardPerformanceSeries(t *testing.T) {
	_, _, svc := newService(t)
	ctx := context.Background()

	res, err := svc.Dashboard(ctx, admin, dto.AnalyticsQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"mnist"}, res.ModelNames)
	assert.Equal(t, "mnist", res.SelectedModel)
	assert.Equal(t, []string{"accuracy", "recall"}, res.AvailableMetrics)
	assert.Equal(t, []string{"accuracy"}, res.SelectedMetrics)
	assert.Equal(t, []string{"v1", "v2", "v3"}, res.Performance.Labels)
	assert.Equal(t, "Model Performance Over Versions - mnist", res.Performance.Title)

	res, err = svc.Dashboard(ctx, admin, dto.AnalyticsQuery{ModelName: "mnist", Metrics: "recall,bogus,accuracy"})
	require.NoError(t, err)
	assert.Equal(t, []string{"recall", "accuracy"}, res.SelectedMetrics)
	require.Len(t, res.Performance.Datasets, 2)
	assert.Equal(t, dto.Dataset{Label: "Recall", Data: []float64{0, 0.8, 0.82}}, res.Performance.Datasets[0])

	res, err = svc.Dashboard(ctx, admin, dto.AnalyticsQuery{Status: "active"})
	require.NoError(t, err)
	assert.Equal(t, []string{"v2"}, res.Performance.Labels)
}

func TestDashboardDownloads(t *testing.T) {
	_, counter, svc := newService(t)
	ctx := context.Background()

	require.NoError(t, counter.Increment(ctx, 12, 2))
	require.NoError(t, counter.Increment(ctx, 12, 3))
	require.NoError(t, counter.Increment(ctx, 12, 3))
	require.NoError(t, counter.Increment(ctx, 10, 2))

	res, err := svc.Dashboard(ctx, admin, dto.AnalyticsQuery{})
	require.NoError(t, err)
	assert.Equal(t, []dto.ModelDownloads{
		{ModelID: 12, ModelName: "mnist", Downloads: 2},
		{ModelID: 10, ModelName: "mnist", Downloads: 1},
	}, res.Downloads)
}

func TestDashboardUpstreamFailure(t *testing.T) {
	p, _, svc := newService(t)
	p.Fail("GET /users/", http.StatusForbidden, "Admin access required", 0)

	_, err := svc.Dashboard(context.Background(), admin, dto.AnalyticsQuery{})
	assert.EqualError(t, err, "Admin access required")
}
