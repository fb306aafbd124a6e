package dto

import (
	"fedlearn.dev/dashboard/internal/entity"
	commonDto "fedlearn.dev/dashboard/pkg/dto"
)

type ModelFilter struct {
	// Status defaults to active; "all" disables the filter.
	Status string `form:"status" binding:"omitempty,oneof=all active experimental archived"`
	Name   string `form:"name"`
	commonDto.PageQuery
}

type ModelListResponse struct {
	Data  []entity.Model           `json:"data"`
	Meta  commonDto.PaginationMeta `json:"meta"`
	Names []string                 `json:"model_names"`
}

type ModelDetailResponse struct {
	Model    *entity.Model    `json:"model"`
	Comments []entity.Comment `json:"comments"`
}

// ModelBundle is the downloadable JSON export of a model.
type ModelBundle struct {
	ModelName   string             `json:"model_name"`
	Version     int                `json:"version"`
	Description string             `json:"description"`
	CreatedDate string             `json:"created_date"`
	Metrics     map[string]float64 `json:"metrics"`
	Weights     entity.Weights     `json:"weights"`
}

type RateInput struct {
	Rating int `json:"rating" binding:"required,min=1,max=5"`
}

type CommentInput struct {
	CommentText string `json:"comment" binding:"required,max=2000"`
}

type ModerateInput struct {
	IsApproved *bool `json:"is_approved" binding:"required"`
	ModelID    int64 `json:"model_id" binding:"required"`
}

type CreateModelInput struct {
	ModelName        string         `json:"model_name" binding:"required,max=200"`
	ModelDescription string         `json:"model_description" binding:"required"`
	Weights          entity.Weights `json:"weights"`
}

type UpdateModelInput struct {
	ModelName        string             `json:"model_name" binding:"required,max=200"`
	ModelDescription string             `json:"model_description" binding:"required"`
	Metrics          map[string]float64 `json:"metrics" binding:"omitempty,dive,keys,required,endkeys,gte=0,lte=1"`
	Weights          entity.Weights     `json:"weights"`
}

type MetricInput struct {
	Name  string   `json:"name" binding:"required,max=64"`
	Value *float64 `json:"value" binding:"required,gte=0,lte=1"`
}

type PredictResponse struct {
	ModelID    int64          `json:"model_id"`
	Prediction map[string]any `json:"prediction"`
}
