package service

import (
	"context"
	"net/http"
	"testing"

	"fedlearn.dev/dashboard/internal/entity"
	"fedlearn.dev/dashboard/internal/modules/admin/dto"
	adminRepo "fedlearn.dev/dashboard/internal/modules/admin/repository"
	auditService "fedlearn.dev/dashboard/internal/modules/audit/service"
	contribRepo "fedlearn.dev/dashboard/internal/modules/contribution/repository"
	modelRepo "fedlearn.dev/dashboard/internal/modules/model/repository"
	"fedlearn.dev/dashboard/internal/testutil"
	"fedlearn.dev/dashboard/pkg/apperror"
	commonDto "fedlearn.dev/dashboard/pkg/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = entity.User{ID: 1, Username: "root", Email: "root@lab.io", Role: entity.RoleAdmin}

func newService(t *testing.T) (*testutil.Platform, AdminService) {
	p := testutil.NewPlatform(t)
	p.AddUser(admin, "pw")
	p.AddUser(entity.User{ID: 2, Username: "alice", Email: "alice@uni.edu", Role: entity.RoleResearcher,
		GDrive: &entity.GDriveConfig{ClientID: "cid", ClientSecret: "secret", RefreshToken: "tok"}}, "pw")
	p.AddUser(entity.User{ID: 3, Username: "bob", Email: "bob@corp.com", Role: entity.RoleMember}, "pw")
	p.AddUser(entity.User{ID: 4, Username: "carol", Email: "carol@UNI.edu"}, "pw")

	p.AddModel(entity.Model{ID: 10, Name: "mnist", Description: "digits", Version: 2, Status: entity.ModelStatusActive})
	p.AddModel(entity.Model{ID: 11, Name: "cifar", Description: "images", Version: 1, Status: entity.ModelStatusActive})

	p.AddContribution(entity.Contribution{ID: 100, ResearcherID: 2, ModelID: 10, Status: entity.ContributionApproved}, "")
	p.AddContribution(entity.Contribution{ID: 101, ResearcherID: 2, ModelID: 10, Status: entity.ContributionAggregated}, "")
	p.AddContribution(entity.Contribution{ID: 102, ResearcherID: 2, ModelID: 10, Status: entity.ContributionPending}, "")
	p.AddContribution(entity.Contribution{ID: 103, ResearcherID: 2, ModelID: 11, Status: entity.ContributionApproved}, "")

	api := p.Client()
	svc := NewAdminService(
		adminRepo.NewAdminRepository(api),
		contribRepo.NewContributionRepository(api),
		modelRepo.NewModelRepository(api),
		auditService.NewAuditService(nil),
	)
	return p, svc
}

func usernames(users []entity.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.Username)
	}
	return out
}

func TestUsersFilterAndRedact(t *testing.T) {
	_, svc := newService(t)
	ctx := context.Background()

	res, err := svc.Users(ctx, admin, dto.UserFilter{Query: "uni.EDU"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "carol"}, usernames(res.Data))
	for _, u := range res.Data {
		if u.GDrive != nil {
			assert.Empty(t, u.GDrive.ClientSecret)
			assert.Empty(t, u.GDrive.RefreshToken)
		}
	}

	// Users without a role count as visitors.
	res, err = svc.Users(ctx, admin, dto.UserFilter{Role: "1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, usernames(res.Data))

	res, err = svc.Users(ctx, admin, dto.UserFilter{Role: "all"})
	require.NoError(t, err)
	assert.Len(t, res.Data, 3)
}

func TestDeleteUserRefusesSelf(t *testing.T) {
	p, svc := newService(t)
	ctx := context.Background()

	err := svc.DeleteUser(ctx, admin, admin.ID)
	assert.EqualError(t, err, "You cannot delete your own account")
	assert.Zero(t, p.CallCount("DELETE /users/:id/delete/"))

	require.NoError(t, svc.DeleteUser(ctx, admin, 3))
	assert.NotContains(t, p.Users, int64(3))
}

func TestAssignRole(t *testing.T) {
	p, svc := newService(t)
	ctx := context.Background()

	err := svc.AssignRole(ctx, admin, 3, entity.Role(7))
	assert.EqualError(t, err, "Invalid role")

	require.NoError(t, svc.AssignRole(ctx, admin, 3, entity.RoleResearcher))
	assert.Equal(t, entity.RoleResearcher, p.Users[3].Role)

	err = svc.AssignRole(ctx, admin, 99, entity.RoleMember)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperror.MapErrorToStatus(err))
}

func TestContributionsFilter(t *testing.T) {
	_, svc := newService(t)
	ctx := context.Background()

	res, err := svc.Contributions(ctx, admin, dto.ContributionFilter{})
	require.NoError(t, err)
	assert.Len(t, res.Data, 4)

	res, err = svc.Contributions(ctx, admin, dto.ContributionFilter{Status: "approved", ModelID: 10})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, int64(100), res.Data[0].ID)

	res, err = svc.Contributions(ctx, admin, dto.ContributionFilter{ModelID: 11, PageQuery: commonDto.PageQuery{Page: 2}})
	require.NoError(t, err)
	assert.Empty(t, res.Data)
	assert.Equal(t, int64(1), res.Meta.TotalItems)
}

func TestContributionsModelFilterSkipsRowsWithoutModelDetails(t *testing.T) {
	p, svc := newService(t)
	ctx := context.Background()
	p.AddContribution(entity.Contribution{ID: 104, ResearcherID: 2, ModelID: 12, Status: entity.ContributionPending}, "")

	res, err := svc.Contributions(ctx, admin, dto.ContributionFilter{ModelID: 12})
	require.NoError(t, err)
	assert.Empty(t, res.Data)

	res, err = svc.Contributions(ctx, admin, dto.ContributionFilter{})
	require.NoError(t, err)
	assert.Len(t, res.Data, 5)
}

func TestUpdateContributionStatus(t *testing.T) {
	p, svc := newService(t)
	ctx := context.Background()

	err := svc.UpdateContributionStatus(ctx, admin, 102, dto.UpdateStatusInput{Status: "done"})
	assert.EqualError(t, err, "Invalid contribution status")

	negative := -1
	err = svc.UpdateContributionStatus(ctx, admin, 102, dto.UpdateStatusInput{Status: "approved", PointsEarned: &negative})
	assert.EqualError(t, err, "Points must not be negative")

	require.NoError(t, svc.UpdateContributionStatus(ctx, admin, 102, dto.UpdateStatusInput{Status: "approved"}))
	assert.Equal(t, entity.ContributionApproved, p.Contributions[102].Status)
	assert.Equal(t, dto.DefaultPoints, p.Contributions[102].PointsEarned)

	p.Fail("PUT /contributions/:id/update-status/", http.StatusInternalServerError, "db locked", 0)
	err = svc.UpdateContributionStatus(ctx, admin, 102, dto.UpdateStatusInput{Status: "rejected"})
	assert.EqualError(t, err, "Failed to update contribution status")
}

func TestCreateExperimentalModel(t *testing.T) {
	p, svc := newService(t)
	ctx := context.Background()

	res, err := svc.CreateExperimentalModel(ctx, admin, dto.ExperimentalModelInput{ContributionIDs: []int64{100, 101, 100}})
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.TargetModelID)
	assert.Equal(t, "mnist (Experimental)", res.ModelName)
	assert.Equal(t, "digits", res.ModelDescription)
	assert.Equal(t, 3, res.Version)
	assert.Equal(t, dto.DefaultPoints, res.PointsPerContribution)
	assert.Equal(t, 2, res.Contributions)

	require.Len(t, p.Experimental, 1)
	body := p.Experimental[0]
	assert.Equal(t, []any{float64(100), float64(101)}, body["contribution_ids"])
	assert.Equal(t, float64(10), body["target_model_id"])
	assert.Equal(t, float64(admin.ID), body["admin_id"])
}

func TestCreateExperimentalModelRejectsBadSelections(t *testing.T) {
	p, svc := newService(t)
	ctx := context.Background()

	cases := []struct {
		ids []int64
		msg string
	}{
		{nil, "Please select contributions to aggregate"},
		{[]int64{100, 103}, "All selected contributions must target the same model"},
		{[]int64{100, 102}, "Only approved or aggregated contributions can be used"},
		{[]int64{100, 555}, "Contribution 555 not found"},
	}
	for _, tc := range cases {
		_, err := svc.CreateExperimentalModel(ctx, admin, dto.ExperimentalModelInput{ContributionIDs: tc.ids})
		assert.EqualError(t, err, tc.msg)
	}
	assert.Empty(t, p.Experimental)
}

func TestCreateExperimentalModelNeedsTargetModel(t *testing.T) {
	p, svc := newService(t)
	p.AddContribution(entity.Contribution{ID: 200, ResearcherID: 2, ModelID: 77, Status: entity.ContributionApproved}, "")

	_, err := svc.CreateExperimentalModel(context.Background(), admin, dto.ExperimentalModelInput{ContributionIDs: []int64{200}})
	assert.EqualError(t, err, "Target model not found")
}

func TestCreateExperimentalModelUpstreamMessageIsFixed(t *testing.T) {
	p, svc := newService(t)
	p.Fail("POST /experimental-models/create/", http.StatusBadRequest, "aggregation crashed", 0)

	_, err := svc.CreateExperimentalModel(context.Background(), admin, dto.ExperimentalModelInput{ContributionIDs: []int64{100}})
	assert.EqualError(t, err, "Failed to create experimental model")
}

func TestCreateFAQSanitizes(t *testing.T) {
	p, svc := newService(t)
	ctx := context.Background()

	faq, err := svc.CreateFAQ(ctx, admin, dto.CreateFAQInput{
		Question: "<b>How</b> do I upload?",
		Answer:   `Use the <a href="/profile">profile</a> page<script>alert(1)</script>`,
	})
	require.NoError(t, err)
	assert.Equal(t, "How do I upload?", faq.Question)
	assert.NotContains(t, faq.Answer, "<script>")
	assert.Contains(t, faq.Answer, `href="/profile"`)
	assert.Len(t, p.FAQs, 1)

	_, err = svc.CreateFAQ(ctx, admin, dto.CreateFAQInput{Question: "Why?", Answer: "<script>x</script>"})
	assert.EqualError(t, err, "Question and answer are required")
}
