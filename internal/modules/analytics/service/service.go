package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"fedlearn.dev/dashboard/internal/entity"
	adminRepo "fedlearn.dev/dashboard/internal/modules/admin/repository"
	counterRepo "fedlearn.dev/dashboard/internal/modules/analytics/repository"
	"fedlearn.dev/dashboard/internal/modules/analytics/dto"
	contribRepo "fedlearn.dev/dashboard/internal/modules/contribution/repository"
	leaderboardService "fedlearn.dev/dashboard/internal/modules/leaderboard/service"
	modelRepo "fedlearn.dev/dashboard/internal/modules/model/repository"
	modelService "fedlearn.dev/dashboard/internal/modules/model/service"
	"fedlearn.dev/dashboard/pkg/logger"
)

type AnalyticsService interface {
	Dashboard(ctx context.Context, admin entity.User, query dto.AnalyticsQuery) (*dto.AnalyticsResponse, error)
}

type analyticsService struct {
	users         adminRepo.AdminRepository
	contributions contribRepo.ContributionRepository
	models        modelRepo.ModelRepository
	downloads     counterRepo.DownloadCounter
}

func NewAnalyticsService(
	users adminRepo.AdminRepository,
	contributions contribRepo.ContributionRepository,
	models modelRepo.ModelRepository,
	downloads counterRepo.DownloadCounter,
) AnalyticsService {
	return &analyticsService{
		users:         users,
		contributions: contributions,
		models:        models,
		downloads:     downloads,
	}
}

func (s *analyticsService) Dashboard(ctx context.Context, admin entity.User, query dto.AnalyticsQuery) (*dto.AnalyticsResponse, error) {
	models, err := s.models.FindAll(ctx, admin.ID, "")
	if err != nil {
		return nil, err
	}
	users, err := s.users.Users(ctx, admin.ID)
	if err != nil {
		return nil, err
	}
	contributions, err := s.contributions.Review(ctx, admin.ID, "all")
	if err != nil {
		return nil, err
	}

	res := &dto.AnalyticsResponse{
		Summary:         summarize(users, contributions, models),
		ModelNames:      modelService.ModelNames(models),
		StatusBreakdown: statusBreakdown(contributions),
		RoleBreakdown:   roleBreakdown(users),
		TopContributors: leaderboardService.TopContributors(users, dto.TopContributorCount),
		SelectedStatus:  query.Status,
	}
	if res.SelectedStatus == "" {
		res.SelectedStatus = "all"
	}

	res.SelectedModel = query.ModelName
	if res.SelectedModel == "" && len(res.ModelNames) > 0 {
		res.SelectedModel = res.ModelNames[0]
	}
	res.AvailableMetrics = availableMetrics(models, res.SelectedModel)
	res.SelectedMetrics = selectMetrics(query.Metrics, res.AvailableMetrics)
	res.Performance = performance(models, res.SelectedModel, res.SelectedStatus, res.SelectedMetrics)

	res.Downloads = s.downloadCounts(ctx, models)
	return res, nil
}

func summarize(users []entity.User, contributions []entity.Contribution, models []entity.Model) dto.Summary {
	sum := dto.Summary{
		TotalUsers:         len(users),
		TotalContributions: len(contributions),
		TotalModels:        len(models),
	}
	for _, u := range users {
		if u.IsActive {
			sum.ActiveUsers++
		}
		if u.Role == entity.RoleResearcher {
			sum.TotalResearchers++
		}
	}
	for _, c := range contributions {
		if c.Aggregatable() {
			sum.ApprovedContributions++
		}
	}
	for _, m := range models {
		if m.Status == entity.ModelStatusActive {
			sum.ActiveModels++
		}
	}
	return sum
}

// availableMetrics is sorted by name; decoded metric maps carry no key order.
func availableMetrics(models []entity.Model, name string) []string {
	if name == "" {
		return []string{}
	}
	set := make(map[string]bool)
	for _, m := range models {
		if m.Name != name {
			continue
		}
		for k := range m.Metrics {
			set[k] = true
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// selectMetrics keeps the requested metrics that exist, defaulting to the
// first available one.
func selectMetrics(requested string, available []string) []string {
	ok := make(map[string]bool, len(available))
	for _, m := range available {
		ok[m] = true
	}

	out := []string{}
	for _, m := range strings.Split(requested, ",") {
		m = strings.TrimSpace(m)
		if ok[m] {
			out = append(out, m)
			ok[m] = false
		}
	}
	if len(out) == 0 && len(available) > 0 {
		out = append(out, available[0])
	}
	return out
}

func performance(models []entity.Model, name, status string, metrics []string) dto.Series {
	selected := make([]entity.Model, 0, len(models))
	for _, m := range models {
		if name != "" && m.Name != name {
			continue
		}
		if status != "all" && m.Status != status {
			continue
		}
		selected = append(selected, m)
	}
	sort.SliceStable(selected, func(i, j int) bool { return selected[i].Version < selected[j].Version })

	series := dto.Series{
		Title:    "Model Performance Over Versions",
		Labels:   make([]string, len(selected)),
		Datasets: make([]dto.Dataset, len(metrics)),
	}
	if name != "" {
		series.Title += " - " + name
	}
	for i, m := range selected {
		series.Labels[i] = "v" + strconv.Itoa(m.Version)
	}
	for i, metric := range metrics {
		data := make([]float64, len(selected))
		for j, m := range selected {
			data[j] = m.Metrics[metric]
		}
		series.Datasets[i] = dto.Dataset{Label: capitalize(metric), Data: data}
	}
	return series
}

func statusBreakdown(contributions []entity.Contribution) []dto.Slice {
	counts := make(map[string]int)
	for _, c := range contributions {
		counts[c.Status]++
	}
	out := make([]dto.Slice, 0, len(counts))
	for _, status := range entity.ContributionStatuses() {
		out = append(out, dto.Slice{Label: capitalize(status), Count: counts[status]})
	}
	return out
}

func roleBreakdown(users []entity.User) []dto.Slice {
	counts := make(map[entity.Role]int)
	for _, u := range users {
		counts[u.Role.Effective()]++
	}
	roles := entity.Roles()
	out := make([]dto.Slice, len(roles))
	for i, r := range roles {
		out[i] = dto.Slice{Label: r.Name() + "s", Count: counts[r]}
	}
	return out
}

// downloadCounts is best-effort: a counter outage leaves the list empty.
func (s *analyticsService) downloadCounts(ctx context.Context, models []entity.Model) []dto.ModelDownloads {
	out := []dto.ModelDownloads{}
	if s.downloads == nil {
		return out
	}
	counts, err := s.downloads.Counts(ctx)
	if err != nil {
		logger.For(logger.DOWNLOAD).Warn("failed to read download counts", "error", err)
		return out
	}

	for _, m := range models {
		if n := counts[m.ID]; n > 0 {
			out = append(out, dto.ModelDownloads{ModelID: m.ID, ModelName: m.Name, Downloads: n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Downloads != out[j].Downloads {
			return out[i].Downloads > out[j].Downloads
		}
		return out[i].ModelID < out[j].ModelID
	})
	return out
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
