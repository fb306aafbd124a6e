package service

import (
	"sort"
	"time"

	"fedlearn.dev/dashboard/internal/entity"
	"fedlearn.dev/dashboard/internal/modules/leaderboard/dto"
)

// TopContributors ranks users with positive points, highest first, ties by
// username, and keeps at most limit entries.
func TopContributors(users []entity.User, limit int) []dto.LeaderboardEntry {
	ranked := make([]entity.User, 0, len(users))
	for _, u := range users {
		if u.TotalPoints > 0 {
			ranked = append(ranked, u)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].TotalPoints != ranked[j].TotalPoints {
			return ranked[i].TotalPoints > ranked[j].TotalPoints
		}
		return ranked[i].Username < ranked[j].Username
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	entries := make([]dto.LeaderboardEntry, len(ranked))
	for i, u := range ranked {
		entries[i] = dto.LeaderboardEntry{
			UserID:     u.ID,
			Username:   u.Username,
			Role:       u.Role.Name(),
			Position:   i + 1,
			RankStatus: GetRankStatus(u.TotalPoints),
		}
	}
	return entries
}

// WeeklyPoints sums the points of contributions uploaded within the last 7 days.
// Contributions with an unparseable upload date are skipped.
func WeeklyPoints(contributions []entity.Contribution, now time.Time) int {
	since := now.AddDate(0, 0, -7)
	total := 0
	for _, c := range contributions {
		uploaded, ok := parseDate(c.UploadDate)
		if ok && !uploaded.Before(since) {
			total += c.PointsEarned
		}
	}
	return total
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
