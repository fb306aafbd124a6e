package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"fedlearn.dev/dashboard/internal/entity"
	counterRepo "fedlearn.dev/dashboard/internal/modules/analytics/repository"
	auditService "fedlearn.dev/dashboard/internal/modules/audit/service"
	"fedlearn.dev/dashboard/internal/modules/model/dto"
	modelRepo "fedlearn.dev/dashboard/internal/modules/model/repository"
	searchService "fedlearn.dev/dashboard/internal/modules/search/service"
	"fedlearn.dev/dashboard/pkg/apperror"
	"fedlearn.dev/dashboard/pkg/bundle"
	commonDto "fedlearn.dev/dashboard/pkg/dto"
	"fedlearn.dev/dashboard/pkg/logger"
	"fedlearn.dev/dashboard/pkg/ratelimit"
	"github.com/microcosm-cc/bluemonday"
)

type ModelService interface {
	List(ctx context.Context, user entity.User, filter dto.ModelFilter) (*dto.ModelListResponse, error)
	All(ctx context.Context, user entity.User) ([]entity.Model, error)
	Experimental(ctx context.Context, user entity.User) ([]entity.Model, error)
	Search(ctx context.Context, user entity.User, query, status string) ([]searchService.ModelDoc, error)
	Reindex(ctx context.Context, user entity.User) error
	Detail(ctx context.Context, user entity.User, modelID int64) (*dto.ModelDetailResponse, error)
	Weights(ctx context.Context, user entity.User, modelID int64) (entity.Weights, error)
	Bundle(ctx context.Context, user entity.User, modelID int64) (*dto.ModelBundle, string, error)
	Rate(ctx context.Context, user entity.User, modelID int64, rating int) (*entity.Rating, error)
	Comment(ctx context.Context, user entity.User, modelID int64, text string) ([]entity.Comment, error)
	Predict(ctx context.Context, user entity.User, modelID int64, fileName string, image io.Reader) (*dto.PredictResponse, error)

	Create(ctx context.Context, admin entity.User, input dto.CreateModelInput) (*entity.Model, error)
	UploadWeights(ctx context.Context, admin entity.User, fileName string, r io.Reader) (entity.Weights, error)
	Update(ctx context.Context, admin entity.User, modelID int64, input dto.UpdateModelInput) (*entity.Model, error)
	AddMetric(ctx context.Context, admin entity.User, modelID int64, input dto.MetricInput) (*entity.Model, error)
	Delete(ctx context.Context, admin entity.User, modelID int64) error
	Publish(ctx context.Context, admin entity.User, modelID int64) error
	Moderate(ctx context.Context, admin entity.User, commentID int64, input dto.ModerateInput) ([]entity.Comment, error)
}

type modelService struct {
	repo        modelRepo.ModelRepository
	index       searchService.ModelIndex
	downloads   counterRepo.DownloadCounter
	limiter     *ratelimit.Limiter
	audit       auditService.AuditService
	sanitizer   *bluemonday.Policy
	commentRate time.Duration
}

func NewModelService(
	repo modelRepo.ModelRepository,
	index searchService.ModelIndex,
	downloads counterRepo.DownloadCounter,
	limiter *ratelimit.Limiter,
	audit auditService.AuditService,
	commentRate time.Duration,
) ModelService {
	return &modelService{
		repo:        repo,
		index:       index,
		downloads:   downloads,
		limiter:     limiter,
		audit:       audit,
		sanitizer:   bluemonday.StrictPolicy(),
		commentRate: commentRate,
	}
}

func (s *modelService) All(ctx context.Context, user entity.User) ([]entity.Model, error) {
	models, err := s.repo.FindAll(ctx, user.ID, "")
	if err != nil {
		return nil, err
	}
	if err := s.index.IndexModels(ctx, models); err != nil {
		logger.For(logger.SEARCH).Warn("model index refresh failed", "error", err)
	}
	return models, nil
}

func errDriveNotConfigured() error {
	return apperror.New(http.StatusBadRequest, apperror.ErrDriveNotConfigured.Error(), apperror.ErrDriveNotConfigured)
}

// ModelNames lists distinct model names in first-seen order.
func ModelNames(models []entity.Model) []string {
	seen := make(map[string]bool)
	names := []string{}
	for _, m := range models {
		if !seen[m.Name] {
			seen[m.Name] = true
			names = append(names, m.Name)
		}
	}
	return names
}

func (s *modelService) List(ctx context.Context, user entity.User, filter dto.ModelFilter) (*dto.ModelListResponse, error) {
	models, err := s.All(ctx, user)
	if err != nil {
		return nil, err
	}

	status := filter.Status
	if status == "" {
		status = entity.ModelStatusActive
	}

	var byStatus []entity.Model
	for _, m := range models {
		if status == "all" || m.Status == status {
			byStatus = append(byStatus, m)
		}
	}

	names := ModelNames(byStatus)
	if names == nil {
		names = []string{}
	}

	selected := byStatus
	if filter.Name != "" {
		selected = nil
		for _, m := range byStatus {
			if m.Name == filter.Name {
				selected = append(selected, m)
			}
		}
	}

	page := commonDto.Paginate(selected, filter.Page, filter.Limit)
	return &dto.ModelListResponse{Data: page.Data, Meta: page.Meta, Names: names}, nil
}

func (s *modelService) Experimental(ctx context.Context, user entity.User) ([]entity.Model, error) {
	models, err := s.repo.FindAll(ctx, user.ID, entity.ModelStatusExperimental)
	if err != nil {
		return nil, err
	}
	// the platform may ignore the status filter
	out := models[:0]
	for _, m := range models {
		if m.Status == entity.ModelStatusExperimental {
			out = append(out, m)
		}
	}
	return out, nil
}

// Search answers from the shared index, so it applies the same Member
// gate the platform enforces on the model list.
func (s *modelService) Search(ctx context.Context, user entity.User, query, status string) ([]searchService.ModelDoc, error) {
	if !user.Role.AtLeast(entity.RoleMember) {
		return nil, apperror.Forbidden("Member access required")
	}
	hits, err := s.index.Search(ctx, query, status, 20)
	if err != nil {
		return nil, err
	}
	if hits == nil {
		hits = []searchService.ModelDoc{}
	}
	return hits, nil
}

func (s *modelService) Reindex(ctx context.Context, user entity.User) error {
	_, err := s.All(ctx, user)
	return err
}

func (s *modelService) Detail(ctx context.Context, user entity.User, modelID int64) (*dto.ModelDetailResponse, error) {
	m, err := s.repo.FindByID(ctx, user.ID, modelID)
	if err != nil {
		return nil, err
	}
	comments, err := s.repo.Comments(ctx, user.ID, modelID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []entity.Comment{}
	}
	return &dto.ModelDetailResponse{Model: m, Comments: comments}, nil
}

func (s *modelService) Weights(ctx context.Context, user entity.User, modelID int64) (entity.Weights, error) {
	w, err := s.repo.Weights(ctx, user.ID, modelID)
	if err != nil {
		return nil, err
	}
	if w.URL() == "" {
		return nil, apperror.New(http.StatusNotFound, "Failed to fetch model file", apperror.ErrNotFound)
	}
	if err := s.downloads.Increment(ctx, modelID, user.ID); err != nil {
		logger.For(logger.DOWNLOAD).Warn("download count failed", "model_id", modelID, "error", err)
	}
	return w, nil
}

// BundleFileName is "<name>_v<version>.json".
func BundleFileName(name string, version int) string {
	return fmt.Sprintf("%s_v%d.json", name, version)
}

// WeightsFileName is "<name>_v<version>.h5".
func WeightsFileName(name string, version int) string {
	return fmt.Sprintf("%s_v%d.h5", name, version)
}

func (s *modelService) Bundle(ctx context.Context, user entity.User, modelID int64) (*dto.ModelBundle, string, error) {
	m, err := s.repo.FindByID(ctx, user.ID, modelID)
	if err != nil {
		return nil, "", err
	}
	w, err := s.Weights(ctx, user, modelID)
	if err != nil {
		return nil, "", err
	}

	b := &dto.ModelBundle{
		ModelName:   m.Name,
		Version:     m.Version,
		Description: m.Description,
		CreatedDate: m.CreatedDate,
		Metrics:     m.Metrics,
		Weights:     w,
	}
	return b, BundleFileName(m.Name, m.Version), nil
}

func (s *modelService) throttle(ctx context.Context, user entity.User, action string) error {
	ok, err := s.limiter.Allow(ctx, fmt.Sprintf("user:%d", user.ID), action, s.commentRate)
	if err != nil {
		logger.For(logger.SYSTEM).Warn("rate limit check failed", "error", err)
		return nil
	}
	if !ok {
		return apperror.New(http.StatusTooManyRequests, "You are doing that too often, please wait a moment", apperror.ErrRateLimitExceeded)
	}
	return nil
}

func (s *modelService) Rate(ctx context.Context, user entity.User, modelID int64, rating int) (*entity.Rating, error) {
	if rating < 1 || rating > 5 {
		return nil, apperror.Invalid("Rating must be between 1 and 5")
	}
	if err := s.throttle(ctx, user, fmt.Sprintf("rate:%d", modelID)); err != nil {
		return nil, err
	}
	return s.repo.Rate(ctx, user.ID, modelID, rating)
}

func (s *modelService) Comment(ctx context.Context, user entity.User, modelID int64, text string) ([]entity.Comment, error) {
	clean := strings.TrimSpace(s.sanitizer.Sanitize(text))
	if clean == "" {
		return nil, apperror.Invalid("Please enter a comment")
	}
	if err := s.throttle(ctx, user, "comment"); err != nil {
		return nil, err
	}
	if err := s.repo.Comment(ctx, user.ID, modelID, clean); err != nil {
		return nil, err
	}
	return s.repo.Comments(ctx, user.ID, modelID)
}

func (s *modelService) Predict(ctx context.Context, user entity.User, modelID int64, fileName string, image io.Reader) (*dto.PredictResponse, error) {
	if modelID <= 0 || image == nil {
		return nil, apperror.Invalid("Please select both a model and an image")
	}
	out, err := s.repo.Predict(ctx, user.ID, modelID, fileName, image)
	if err != nil {
		return nil, err
	}
	return &dto.PredictResponse{ModelID: modelID, Prediction: out}, nil
}

func (s *modelService) Create(ctx context.Context, admin entity.User, input dto.CreateModelInput) (*entity.Model, error) {
	if !admin.GDrive.CanPublishModels() {
		return nil, errDriveNotConfigured()
	}
	if input.Weights == nil {
		return nil, apperror.Invalid("Please upload model weights")
	}
	if strings.TrimSpace(input.ModelName) == "" || strings.TrimSpace(input.ModelDescription) == "" || input.Weights.URL() == "" {
		return nil, apperror.Invalid("Missing required fields")
	}
	// a pasted JSON bundle must be a real bundle; uploaded .h5 weights carry only the URL
	if _, hasArch := input.Weights["architecture"]; hasArch {
		if err := bundle.Document(input.Weights).Validate(); err != nil {
			return nil, apperror.Invalid("Invalid model file format")
		}
	}

	metrics := make(map[string]float64, len(entity.DefaultMetricNames))
	for _, name := range entity.DefaultMetricNames {
		metrics[name] = 0
	}

	m, err := s.repo.Create(ctx, admin.ID, &entity.Model{
		Name:        strings.TrimSpace(input.ModelName),
		Description: strings.TrimSpace(input.ModelDescription),
		Weights:     input.Weights,
		Metrics:     metrics,
		Status:      entity.ModelStatusExperimental,
	})
	s.audit.Record(ctx, admin, "model.create", "model:"+input.ModelName, "", err)
	if err != nil {
		return nil, err
	}
	if err := s.index.IndexModels(ctx, []entity.Model{*m}); err != nil {
		logger.For(logger.SEARCH).Warn("indexing new model failed", "error", err)
	}
	return m, nil
}

func (s *modelService) UploadWeights(ctx context.Context, admin entity.User, fileName string, r io.Reader) (entity.Weights, error) {
	if !admin.GDrive.CanPublishModels() {
		return nil, errDriveNotConfigured()
	}
	kind, err := bundle.KindOf(fileName)
	if err != nil || kind != bundle.KindHDF5 {
		return nil, apperror.Invalid("Invalid file format. Must be .h5")
	}
	w, err := s.repo.UploadWeights(ctx, admin.ID, fileName, r)
	s.audit.Record(ctx, admin, "model.upload_weights", fileName, "", err)
	return w, err
}

// ValidateMetrics rejects any value outside [0,1], naming the first offender
// in key order.
func ValidateMetrics(metrics map[string]float64) error {
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.TrimSpace(k) == "" {
			return apperror.Invalid("Metric name is required")
		}
		if v := metrics[k]; v < 0 || v > 1 {
			return apperror.Invalid(fmt.Sprintf("%s must be between 0 and 1", k))
		}
	}
	return nil
}

func (s *modelService) Update(ctx context.Context, admin entity.User, modelID int64, input dto.UpdateModelInput) (*entity.Model, error) {
	if strings.TrimSpace(input.ModelName) == "" || strings.TrimSpace(input.ModelDescription) == "" {
		return nil, apperror.Invalid("Please fill in all required fields")
	}
	if err := ValidateMetrics(input.Metrics); err != nil {
		return nil, err
	}

	fields := map[string]any{
		"model_name":        strings.TrimSpace(input.ModelName),
		"model_description": strings.TrimSpace(input.ModelDescription),
	}
	if input.Metrics != nil {
		fields["metrics"] = input.Metrics
	}
	if input.Weights != nil {
		if err := bundle.Document(input.Weights).Validate(); err != nil && input.Weights.URL() == "" {
			return nil, apperror.Invalid("Invalid model file format")
		}
		fields["weights"] = input.Weights
	}

	m, err := s.repo.Update(ctx, admin.ID, modelID, fields)
	s.audit.Record(ctx, admin, "model.update", fmt.Sprintf("model:%d", modelID), "", err)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *modelService) AddMetric(ctx context.Context, admin entity.User, modelID int64, input dto.MetricInput) (*entity.Model, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || input.Value == nil {
		return nil, apperror.Invalid("Please enter both metric name and value")
	}
	if *input.Value < 0 || *input.Value > 1 {
		return nil, apperror.Invalid("Metric value must be between 0 and 1")
	}

	m, err := s.repo.FindByID(ctx, admin.ID, modelID)
	if err != nil {
		return nil, err
	}
	metrics := make(map[string]float64, len(m.Metrics)+1)
	for k, v := range m.Metrics {
		metrics[k] = v
	}
	metrics[name] = *input.Value

	return s.Update(ctx, admin, modelID, dto.UpdateModelInput{
		ModelName:        m.Name,
		ModelDescription: m.Description,
		Metrics:          metrics,
	})
}

func (s *modelService) Delete(ctx context.Context, admin entity.User, modelID int64) error {
	err := s.repo.Delete(ctx, admin.ID, modelID)
	s.audit.Record(ctx, admin, "model.delete", fmt.Sprintf("model:%d", modelID), "", err)
	if err != nil {
		return err
	}
	if err := s.index.RemoveModel(ctx, modelID); err != nil {
		logger.For(logger.SEARCH).Warn("removing model from index failed", "model_id", modelID, "error", err)
	}
	return nil
}

func (s *modelService) Publish(ctx context.Context, admin entity.User, modelID int64) error {
	m, err := s.repo.FindByID(ctx, admin.ID, modelID)
	if err != nil {
		return err
	}
	if m.Status != entity.ModelStatusExperimental {
		return apperror.Invalid("Only experimental models can be published")
	}
	err = s.repo.Publish(ctx, admin.ID, modelID)
	s.audit.Record(ctx, admin, "model.publish", fmt.Sprintf("model:%d", modelID), "", err)
	return err
}

func (s *modelService) Moderate(ctx context.Context, admin entity.User, commentID int64, input dto.ModerateInput) ([]entity.Comment, error) {
	if input.IsApproved == nil {
		return nil, apperror.Invalid("is_approved is required")
	}
	err := s.repo.Moderate(ctx, admin.ID, commentID, *input.IsApproved)
	detail := "rejected"
	if *input.IsApproved {
		detail = "approved"
	}
	s.audit.Record(ctx, admin, "comment.moderate", fmt.Sprintf("comment:%d", commentID), detail, err)
	if err != nil {
		return nil, err
	}
	return s.repo.Comments(ctx, admin.ID, input.ModelID)
}
