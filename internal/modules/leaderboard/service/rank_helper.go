package service

import (
	"math"

	"fedlearn.dev/dashboard/internal/modules/leaderboard/dto"
)

// Rank thresholds (all-time points). An approved contribution earns 10 by default.
const (
	PointsPioneer      = 1000
	PointsExpert       = 500
	PointsCollaborator = 200
	PointsContributor  = 50
	PointsNewcomer     = 0
)

// Weekly activity thresholds
const (
	WeeklyOnFire   = 50
	WeeklyTrending = 30
	WeeklyActive   = 10
)

type tier struct {
	name      string
	threshold int
}

// tiers is ordered from the highest rank down.
var tiers = []tier{
	{"Pioneer", PointsPioneer},
	{"Expert", PointsExpert},
	{"Collaborator", PointsCollaborator},
	{"Contributor", PointsContributor},
	{"Newcomer", PointsNewcomer},
}

func GetRankStatus(allTimePoints int) dto.RankStatus {
	return GetRankStatusWithWeekly(allTimePoints, 0)
}

// GetRankStatusWithWeekly computes the rank from all-time points and the
// activity label from points earned in the last 7 days.
func GetRankStatusWithWeekly(allTimePoints, weeklyPoints int) dto.RankStatus {
	status := dto.RankStatus{CurrentPoints: allTimePoints, WeeklyPoints: weeklyPoints}

	for i, t := range tiers {
		if allTimePoints < t.threshold {
			continue
		}
		status.RankName = t.name
		if i == 0 {
			status.NextRank = "Max Level"
			status.TargetPoints = t.threshold
			status.Progress = 100
		} else {
			next := tiers[i-1]
			status.NextRank = next.name
			status.TargetPoints = next.threshold
			status.Progress = float64(allTimePoints) / float64(next.threshold) * 100
		}
		break
	}
	if status.RankName == "" {
		// negative totals
		status.RankName = "Newcomer"
		status.NextRank = "Contributor"
		status.TargetPoints = PointsContributor
	}

	switch {
	case weeklyPoints >= WeeklyOnFire:
		status.WeeklyLabel = "🔥 On Fire!"
	case weeklyPoints >= WeeklyTrending:
		status.WeeklyLabel = "⚡ Trending"
	case weeklyPoints >= WeeklyActive:
		status.WeeklyLabel = "📈 Active"
	}

	status.Progress = math.Round(status.Progress*100) / 100
	return status
}
