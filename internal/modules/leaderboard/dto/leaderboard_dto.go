package dto

// RankStatus is a researcher's standing derived from their points.
type RankStatus struct {
	RankName      string  `json:"rank_name"`
	NextRank      string  `json:"next_rank"`
	CurrentPoints int     `json:"current_points"`
	TargetPoints  int     `json:"target_points"`
	Progress      float64 `json:"progress"`

	WeeklyPoints int    `json:"weekly_points"`
	WeeklyLabel  string `json:"weekly_label"`
}

// LeaderboardEntry is one contributor in the top list. Position is 1-based.
type LeaderboardEntry struct {
	UserID     int64      `json:"user_id"`
	Username   string     `json:"username"`
	Role       string     `json:"role"`
	Position   int        `json:"position"`
	RankStatus RankStatus `json:"rank_status"`
}
