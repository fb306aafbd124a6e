package repository

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"fedlearn.dev/dashboard/internal/entity"
	"fedlearn.dev/dashboard/pkg/apiclient"
	"fedlearn.dev/dashboard/pkg/apperror"
)

// ExperimentalModelRequest aggregates reviewed contributions into a new model.
type ExperimentalModelRequest struct {
	AdminID               int64   `json:"admin_id"`
	ContributionIDs       []int64 `json:"contribution_ids"`
	ModelName             string  `json:"model_name"`
	ModelDescription      string  `json:"model_description"`
	PointsPerContribution int     `json:"points_per_contribution"`
	TargetModelID         int64   `json:"target_model_id"`
}

type ContributionRepository interface {
	ByResearcher(ctx context.Context, researcherID int64) ([]entity.Contribution, error)
	Upload(ctx context.Context, researcherID, modelID int64, fileName string, data []byte) (*entity.Contribution, error)
	// Delete is used by owners and admins alike; the platform decides.
	Delete(ctx context.Context, actorID, contributionID int64) error
	Weights(ctx context.Context, userID, contributionID int64) (entity.Weights, error)

	Review(ctx context.Context, adminID int64, status string) ([]entity.Contribution, error)
	UpdateStatus(ctx context.Context, adminID, contributionID int64, status string, points int) error
	CreateExperimental(ctx context.Context, req ExperimentalModelRequest) error
}

type contributionRepository struct {
	api *apiclient.Client
}

func NewContributionRepository(api *apiclient.Client) ContributionRepository {
	return &contributionRepository{api: api}
}

// fixed replaces whatever the platform said with msg, keeping the status.
func fixed(err error, msg string) error {
	if err == nil {
		return nil
	}
	return apperror.New(apperror.MapErrorToStatus(err), msg, err)
}

func (r *contributionRepository) ByResearcher(ctx context.Context, researcherID int64) ([]entity.Contribution, error) {
	var out []entity.Contribution
	req := r.api.R(ctx).SetQueryParam("researcher_id", apiclient.ID(researcherID))
	if err := apiclient.Do(req, http.MethodGet, "/contributions/", &out, "Failed to fetch contributions"); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contributionRepository) Upload(ctx context.Context, researcherID, modelID int64, fileName string, data []byte) (*entity.Contribution, error) {
	var out entity.Contribution
	req := r.api.Long(ctx).
		SetFormData(map[string]string{
			"researcher_id": apiclient.ID(researcherID),
			"model":         apiclient.ID(modelID),
		}).
		SetFileReader("file", fileName, bytes.NewReader(data))
	if err := apiclient.Do(req, http.MethodPost, "/contributions/upload/", &out, "Failed to upload contribution"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *contributionRepository) Delete(ctx context.Context, actorID, contributionID int64) error {
	req := r.api.R(ctx).SetQueryParam("researcher_id", apiclient.ID(actorID))
	return apiclient.Do(req, http.MethodDelete, fmt.Sprintf("/contributions/%d/delete/", contributionID), nil, "Failed to delete contribution")
}

func (r *contributionRepository) Weights(ctx context.Context, userID, contributionID int64) (entity.Weights, error) {
	var out struct {
		Weights entity.Weights `json:"weights"`
	}
	req := r.api.R(ctx).SetQueryParam("user_id", apiclient.ID(userID))
	if err := apiclient.Do(req, http.MethodGet, fmt.Sprintf("/contributions/%d/weights/", contributionID), &out, "Failed to fetch contribution weights"); err != nil {
		return nil, err
	}
	return out.Weights, nil
}

func (r *contributionRepository) Review(ctx context.Context, adminID int64, status string) ([]entity.Contribution, error) {
	if status == "" {
		status = "all"
	}
	var out []entity.Contribution
	req := r.api.R(ctx).SetQueryParams(map[string]string{
		"admin_id": apiclient.ID(adminID),
		"status":   status,
	})
	if err := apiclient.Do(req, http.MethodGet, "/contributions/review/", &out, "Failed to fetch contributions"); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contributionRepository) UpdateStatus(ctx context.Context, adminID, contributionID int64, status string, points int) error {
	body := map[string]any{"admin_id": adminID, "status": status, "points_earned": points}
	err := apiclient.Do(r.api.R(ctx).SetBody(body), http.MethodPut, fmt.Sprintf("/contributions/%d/update-status/", contributionID), nil, "Failed to update contribution status")
	return fixed(err, "Failed to update contribution status")
}

func (r *contributionRepository) CreateExperimental(ctx context.Context, req ExperimentalModelRequest) error {
	err := apiclient.Do(r.api.R(ctx).SetBody(req), http.MethodPost, "/experimental-models/create/", nil, "Failed to create experimental model")
	return fixed(err, "Failed to create experimental model")
}
