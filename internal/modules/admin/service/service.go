package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"fedlearn.dev/dashboard/internal/entity"
	adminRepo "fedlearn.dev/dashboard/internal/modules/admin/repository"
	"fedlearn.dev/dashboard/internal/modules/admin/dto"
	auditService "fedlearn.dev/dashboard/internal/modules/audit/service"
	contribRepo "fedlearn.dev/dashboard/internal/modules/contribution/repository"
	modelRepo "fedlearn.dev/dashboard/internal/modules/model/repository"
	"fedlearn.dev/dashboard/pkg/apperror"
	commonDto "fedlearn.dev/dashboard/pkg/dto"
	"github.com/microcosm-cc/bluemonday"
)

type AdminService interface {
	Users(ctx context.Context, admin entity.User, filter dto.UserFilter) (*commonDto.Paginated[entity.User], error)
	DeleteUser(ctx context.Context, admin entity.User, userID int64) error
	AssignRole(ctx context.Context, admin entity.User, userID int64, role entity.Role) error

	Contributions(ctx context.Context, admin entity.User, filter dto.ContributionFilter) (*commonDto.Paginated[entity.Contribution], error)
	UpdateContributionStatus(ctx context.Context, admin entity.User, contributionID int64, input dto.UpdateStatusInput) error
	DeleteContribution(ctx context.Context, admin entity.User, contributionID int64) error
	CreateExperimentalModel(ctx context.Context, admin entity.User, input dto.ExperimentalModelInput) (*dto.ExperimentalModelResponse, error)

	CreateFAQ(ctx context.Context, admin entity.User, input dto.CreateFAQInput) (*entity.FAQ, error)
	Audit(ctx context.Context, page commonDto.PageQuery) (*commonDto.Paginated[entity.AuditEntry], error)
}

type adminService struct {
	repo          adminRepo.AdminRepository
	contributions contribRepo.ContributionRepository
	models        modelRepo.ModelRepository
	audit         auditService.AuditService
	sanitizer     *bluemonday.Policy
}

func NewAdminService(
	repo adminRepo.AdminRepository,
	contributions contribRepo.ContributionRepository,
	models modelRepo.ModelRepository,
	audit auditService.AuditService,
) AdminService {
	return &adminService{
		repo:          repo,
		contributions: contributions,
		models:        models,
		audit:         audit,
		sanitizer:     bluemonday.UGCPolicy(),
	}
}

func (s *adminService) Users(ctx context.Context, admin entity.User, filter dto.UserFilter) (*commonDto.Paginated[entity.User], error) {
	users, err := s.repo.Users(ctx, admin.ID)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(filter.Query))
	var role entity.Role
	if filter.Role != "" && filter.Role != "all" {
		n, _ := strconv.Atoi(filter.Role)
		role = entity.Role(n)
	}

	selected := make([]entity.User, 0, len(users))
	for _, u := range users {
		if role != 0 && u.Role.Effective() != role {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(u.Username), q) && !strings.Contains(strings.ToLower(u.Email), q) {
			continue
		}
		selected = append(selected, u.Public())
	}

	out := commonDto.Paginate(selected, filter.Page, filter.Limit)
	return &out, nil
}

func (s *adminService) DeleteUser(ctx context.Context, admin entity.User, userID int64) error {
	if userID == admin.ID {
		return apperror.Invalid("You cannot delete your own account")
	}
	err := s.repo.DeleteUser(ctx, admin.ID, userID)
	s.audit.Record(ctx, admin, "user.delete", fmt.Sprintf("user:%d", userID), "", err)
	return err
}

func (s *adminService) AssignRole(ctx context.Context, admin entity.User, userID int64, role entity.Role) error {
	if !role.Valid() {
		return apperror.Invalid("Invalid role")
	}
	err := s.repo.AssignRole(ctx, admin.ID, userID, role)
	s.audit.Record(ctx, admin, "user.assign_role", fmt.Sprintf("user:%d", userID), role.Name(), err)
	return err
}

// modelOf is the model a contribution targets.
func modelOf(c entity.Contribution) int64 {
	if c.ModelDetails != nil && c.ModelDetails.ID != 0 {
		return c.ModelDetails.ID
	}
	return c.ModelID
}

func (s *adminService) Contributions(ctx context.Context, admin entity.User, filter dto.ContributionFilter) (*commonDto.Paginated[entity.Contribution], error) {
	status := filter.Status
	if status == "" {
		status = "all"
	}
	contributions, err := s.contributions.Review(ctx, admin.ID, status)
	if err != nil {
		return nil, err
	}

	selected := make([]entity.Contribution, 0, len(contributions))
	for _, c := range contributions {
		if status != "all" && c.Status != status {
			continue
		}
		if filter.ModelID != 0 && (c.ModelDetails == nil || c.ModelDetails.ID != filter.ModelID) {
			continue
		}
		selected = append(selected, c)
	}

	out := commonDto.Paginate(selected, filter.Page, filter.Limit)
	return &out, nil
}

func (s *adminService) UpdateContributionStatus(ctx context.Context, admin entity.User, contributionID int64, input dto.UpdateStatusInput) error {
	if !entity.ValidContributionStatus(input.Status) {
		return apperror.Invalid("Invalid contribution status")
	}
	points := dto.DefaultPoints
	if input.PointsEarned != nil {
		points = *input.PointsEarned
	}
	if points < 0 {
		return apperror.Invalid("Points must not be negative")
	}

	err := s.contributions.UpdateStatus(ctx, admin.ID, contributionID, input.Status, points)
	s.audit.Record(ctx, admin, "contribution.status", fmt.Sprintf("contribution:%d", contributionID), fmt.Sprintf("%s (+%d)", input.Status, points), err)
	return err
}

func (s *adminService) DeleteContribution(ctx context.Context, admin entity.User, contributionID int64) error {
	err := s.contributions.Delete(ctx, admin.ID, contributionID)
	s.audit.Record(ctx, admin, "contribution.delete", fmt.Sprintf("contribution:%d", contributionID), "", err)
	return err
}

func (s *adminService) CreateExperimentalModel(ctx context.Context, admin entity.User, input dto.ExperimentalModelInput) (*dto.ExperimentalModelResponse, error) {
	ids := dedupe(input.ContributionIDs)
	if len(ids) == 0 {
		return nil, apperror.Invalid("Please select contributions to aggregate")
	}

	all, err := s.contributions.Review(ctx, admin.ID, "all")
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]entity.Contribution, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}

	selected := make([]entity.Contribution, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return nil, apperror.Invalid(fmt.Sprintf("Contribution %d not found", id))
		}
		selected = append(selected, c)
	}

	target := modelOf(selected[0])
	for _, c := range selected[1:] {
		if modelOf(c) != target {
			return nil, apperror.Invalid("All selected contributions must target the same model")
		}
	}
	for _, c := range selected {
		if !c.Aggregatable() {
			return nil, apperror.Invalid("Only approved or aggregated contributions can be used")
		}
	}

	models, err := s.models.FindAll(ctx, admin.ID, "")
	if err != nil {
		return nil, err
	}
	var targetModel *entity.Model
	for i := range models {
		if models[i].ID == target {
			targetModel = &models[i]
			break
		}
	}
	if targetModel == nil {
		return nil, apperror.Invalid("Target model not found")
	}

	name := strings.TrimSpace(input.ModelName)
	if name == "" {
		name = targetModel.Name + " (Experimental)"
	}
	description := strings.TrimSpace(input.ModelDescription)
	if description == "" {
		description = strings.TrimSpace(targetModel.Description)
	}
	if description == "" {
		return nil, apperror.Invalid("Model name and description are required")
	}

	points := dto.DefaultPoints
	if input.PointsPerContribution != nil {
		points = *input.PointsPerContribution
	}
	if points < 0 {
		return nil, apperror.Invalid("Points must not be negative")
	}

	err = s.contributions.CreateExperimental(ctx, contribRepo.ExperimentalModelRequest{
		AdminID:               admin.ID,
		ContributionIDs:       ids,
		ModelName:             name,
		ModelDescription:      description,
		PointsPerContribution: points,
		TargetModelID:         targetModel.ID,
	})
	s.audit.Record(ctx, admin, "model.create_experimental", fmt.Sprintf("model:%d", targetModel.ID), fmt.Sprintf("%d contributions", len(ids)), err)
	if err != nil {
		return nil, err
	}

	return &dto.ExperimentalModelResponse{
		TargetModelID:         targetModel.ID,
		ModelName:             name,
		ModelDescription:      description,
		Version:               targetModel.Version + 1,
		PointsPerContribution: points,
		Contributions:         len(ids),
	}, nil
}

// dedupe keeps the first occurrence of each positive id.
func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id > 0 && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (s *adminService) CreateFAQ(ctx context.Context, admin entity.User, input dto.CreateFAQInput) (*entity.FAQ, error) {
	question := strings.TrimSpace(bluemonday.StrictPolicy().Sanitize(input.Question))
	answer := strings.TrimSpace(s.sanitizer.Sanitize(input.Answer))
	if question == "" || answer == "" {
		return nil, apperror.Invalid("Question and answer are required")
	}

	faq, err := s.repo.CreateFAQ(ctx, admin.ID, question, answer)
	s.audit.Record(ctx, admin, "faq.create", "faq", question, err)
	if err != nil {
		return nil, err
	}
	return faq, nil
}

func (s *adminService) Audit(ctx context.Context, page commonDto.PageQuery) (*commonDto.Paginated[entity.AuditEntry], error) {
	return s.audit.List(ctx, page.Page, page.Limit)
}
