package dto

import leaderboardDto "fedlearn.dev/dashboard/internal/modules/leaderboard/dto"

// TopContributorCount is the size of the analytics leaderboard.
const TopContributorCount = 5

type AnalyticsQuery struct {
	ModelName string `form:"model_name"`
	Status    string `form:"status" binding:"omitempty,oneof=all experimental active archived"`
	// Metrics is a comma separated list; empty selects the first available metric.
	Metrics string `form:"metrics"`
}

type Summary struct {
	TotalUsers            int `json:"total_users"`
	ActiveUsers           int `json:"active_users"`
	TotalResearchers      int `json:"total_researchers"`
	TotalContributions    int `json:"total_contributions"`
	ApprovedContributions int `json:"approved_contributions"`
	TotalModels           int `json:"total_models"`
	ActiveModels          int `json:"active_models"`
}

type Dataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

// Series is chart-ready: one label per point and one dataset per line.
type Series struct {
	Title    string    `json:"title"`
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

type Slice struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type ModelDownloads struct {
	ModelID   int64  `json:"model_id"`
	ModelName string `json:"model_name"`
	Downloads int64  `json:"downloads"`
}

type AnalyticsResponse struct {
	Summary          Summary                           `json:"summary"`
	ModelNames       []string                          `json:"model_names"`
	SelectedModel    string                            `json:"selected_model"`
	SelectedStatus   string                            `json:"selected_status"`
	AvailableMetrics []string                          `json:"available_metrics"`
	SelectedMetrics  []string                          `json:"selected_metrics"`
	Performance      Series                            `json:"performance"`
	StatusBreakdown  []Slice                           `json:"contribution_status"`
	RoleBreakdown    []Slice                           `json:"user_roles"`
	TopContributors  []leaderboardDto.LeaderboardEntry `json:"top_contributors"`
	Downloads        []ModelDownloads                  `json:"downloads"`
}
