package dto

import commonDto "fedlearn.dev/dashboard/pkg/dto"

// DefaultPoints is awarded per contribution when the admin leaves points empty.
const DefaultPoints = 10

type UserFilter struct {
	Query string `form:"q"`
	// Role is "all" or a role level 1..4.
	Role string `form:"role" binding:"omitempty,oneof=all 1 2 3 4"`
	commonDto.PageQuery
}

type AssignRoleInput struct {
	RoleID int `json:"role_id" binding:"required,min=1,max=4"`
}

type ContributionFilter struct {
	Status  string `form:"status" binding:"omitempty,oneof=all pending approved rejected aggregated error"`
	ModelID int64  `form:"model_id"`
	commonDto.PageQuery
}

type UpdateStatusInput struct {
	Status       string `json:"status" binding:"required"`
	PointsEarned *int   `json:"points_earned" binding:"omitempty,min=0"`
}

type ExperimentalModelInput struct {
	ContributionIDs       []int64 `json:"contribution_ids"`
	ModelName             string  `json:"model_name"`
	ModelDescription      string  `json:"model_description"`
	PointsPerContribution *int    `json:"points_per_contribution" binding:"omitempty,min=0"`
}

type ExperimentalModelResponse struct {
	TargetModelID         int64  `json:"target_model_id"`
	ModelName             string `json:"model_name"`
	ModelDescription      string `json:"model_description"`
	Version               int    `json:"version"`
	PointsPerContribution int    `json:"points_per_contribution"`
	Contributions         int    `json:"contributions"`
}

type CreateFAQInput struct {
	Question string `json:"question" binding:"required,max=500"`
	Answer   string `json:"answer" binding:"required"`
}
