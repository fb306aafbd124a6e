package repository

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"fedlearn.dev/dashboard/internal/entity"
	"fedlearn.dev/dashboard/pkg/apiclient"
)

type ModelRepository interface {
	FindAll(ctx context.Context, userID int64, status string) ([]entity.Model, error)
	FindByID(ctx context.Context, userID, modelID int64) (*entity.Model, error)
	Weights(ctx context.Context, userID, modelID int64) (entity.Weights, error)
	UploadWeights(ctx context.Context, adminID int64, fileName string, r io.Reader) (entity.Weights, error)
	Create(ctx context.Context, adminID int64, m *entity.Model) (*entity.Model, error)
	Update(ctx context.Context, adminID, modelID int64, fields map[string]any) (*entity.Model, error)
	Delete(ctx context.Context, adminID, modelID int64) error
	Publish(ctx context.Context, adminID, modelID int64) error

	Rate(ctx context.Context, userID, modelID int64, rating int) (*entity.Rating, error)
	Comment(ctx context.Context, userID, modelID int64, text string) error
	Comments(ctx context.Context, userID, modelID int64) ([]entity.Comment, error)
	Moderate(ctx context.Context, adminID, commentID int64, approved bool) error

	Predict(ctx context.Context, userID, modelID int64, fileName string, image io.Reader) (map[string]any, error)
}

type modelRepository struct {
	api *apiclient.Client
}

func NewModelRepository(api *apiclient.Client) ModelRepository {
	return &modelRepository{api: api}
}

func (r *modelRepository) FindAll(ctx context.Context, userID int64, status string) ([]entity.Model, error) {
	req := r.api.Retrying(ctx).SetQueryParam("user_id", apiclient.ID(userID))
	if status != "" {
		req.SetQueryParam("status", status)
	}

	var models []entity.Model
	if err := apiclient.Do(req, http.MethodGet, "/models/", &models, "Failed to fetch models"); err != nil {
		return nil, err
	}
	return models, nil
}

func (r *modelRepository) FindByID(ctx context.Context, userID, modelID int64) (*entity.Model, error) {
	var m entity.Model
	req := r.api.R(ctx).SetQueryParam("user_id", apiclient.ID(userID))
	if err := apiclient.Do(req, http.MethodGet, fmt.Sprintf("/models/%d/", modelID), &m, "Failed to fetch model details"); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *modelRepository) Weights(ctx context.Context, userID, modelID int64) (entity.Weights, error) {
	var out struct {
		Weights entity.Weights `json:"weights"`
	}
	req := r.api.R(ctx).SetQueryParam("user_id", apiclient.ID(userID))
	if err := apiclient.Do(req, http.MethodGet, fmt.Sprintf("/models/%d/weights/", modelID), &out, "Failed to fetch model weights"); err != nil {
		return nil, err
	}
	return out.Weights, nil
}

func (r *modelRepository) UploadWeights(ctx context.Context, adminID int64, fileName string, rd io.Reader) (entity.Weights, error) {
	var out entity.Weights
	req := r.api.Long(ctx).
		SetQueryParam("admin_id", apiclient.ID(adminID)).
		SetFileReader("file", fileName, rd)
	if err := apiclient.Do(req, http.MethodPost, "/models/upload-weights/", &out, "Failed to upload to Google Drive"); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *modelRepository) Create(ctx context.Context, adminID int64, m *entity.Model) (*entity.Model, error) {
	body := map[string]any{
		"admin_id":          adminID,
		"model_name":        m.Name,
		"model_description": m.Description,
		"weights":           m.Weights,
		"metrics":           m.Metrics,
		"status":            m.Status,
	}

	var created entity.Model
	if err := apiclient.Do(r.api.R(ctx).SetBody(body), http.MethodPost, "/models/", &created, "Failed to create model"); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *modelRepository) Update(ctx context.Context, adminID, modelID int64, fields map[string]any) (*entity.Model, error) {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["admin_id"] = adminID

	var updated entity.Model
	req := r.api.R(ctx).SetQueryParam("user_id", apiclient.ID(adminID)).SetBody(body)
	if err := apiclient.Do(req, http.MethodPut, fmt.Sprintf("/models/%d/", modelID), &updated, "Failed to edit model"); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *modelRepository) Delete(ctx context.Context, adminID, modelID int64) error {
	req := r.api.R(ctx).SetQueryParam("admin_id", apiclient.ID(adminID))
	return apiclient.Do(req, http.MethodDelete, fmt.Sprintf("/models/%d/delete/", modelID), nil, "Failed to delete model")
}

func (r *modelRepository) Publish(ctx context.Context, adminID, modelID int64) error {
	body := map[string]any{"admin_id": adminID, "model_id": modelID}
	return apiclient.Do(r.api.R(ctx).SetBody(body), http.MethodPost, "/models/publish/", nil, "Failed to publish model")
}

func (r *modelRepository) Rate(ctx context.Context, userID, modelID int64, rating int) (*entity.Rating, error) {
	body := map[string]any{"user_id": userID, "user": userID, "model": modelID, "rating": rating}
	var out entity.Rating
	if err := apiclient.Do(r.api.R(ctx).SetBody(body), http.MethodPost, "/rate-model/", &out, "Failed to rate model"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *modelRepository) Comment(ctx context.Context, userID, modelID int64, text string) error {
	body := map[string]any{"user_id": userID, "user": userID, "model": modelID, "comment_text": text}
	return apiclient.Do(r.api.R(ctx).SetBody(body), http.MethodPost, "/comment-model/", nil, "Failed to post comment")
}

func (r *modelRepository) Comments(ctx context.Context, userID, modelID int64) ([]entity.Comment, error) {
	var comments []entity.Comment
	req := r.api.R(ctx).SetQueryParam("user_id", apiclient.ID(userID))
	if err := apiclient.Do(req, http.MethodGet, fmt.Sprintf("/comments/%d/", modelID), &comments, "Failed to fetch comments"); err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *modelRepository) Moderate(ctx context.Context, adminID, commentID int64, approved bool) error {
	body := map[string]any{"admin_id": adminID, "is_approved": approved}
	return apiclient.Do(r.api.R(ctx).SetBody(body), http.MethodPut, fmt.Sprintf("/comments/%d/moderate/", commentID), nil, "Failed to moderate comment")
}

func (r *modelRepository) Predict(ctx context.Context, userID, modelID int64, fileName string, image io.Reader) (map[string]any, error) {
	var out map[string]any
	req := r.api.Long(ctx).
		SetFormData(map[string]string{"model_id": apiclient.ID(modelID), "user_id": apiclient.ID(userID)}).
		SetFileReader("image", fileName, image)
	if err := apiclient.Do(req, http.MethodPost, "/predict/", &out, "Failed to process image"); err != nil {
		return nil, err
	}
	return out, nil
}
