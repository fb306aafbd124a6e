package entity

const (
	ContributionPending    = "pending"
	ContributionApproved   = "approved"
	ContributionRejected   = "rejected"
	ContributionAggregated = "aggregated"
	ContributionError      = "error"
)

var contributionStatuses = []string{
	ContributionPending,
	ContributionApproved,
	ContributionRejected,
	ContributionAggregated,
	ContributionError,
}

func ContributionStatuses() []string {
	out := make([]string, len(contributionStatuses))
	copy(out, contributionStatuses)
	return out
}

func ValidContributionStatus(s string) bool {
	for _, st := range contributionStatuses {
		if st == s {
			return true
		}
	}
	return false
}

type ModelRef struct {
	ID      int64  `json:"model_id"`
	Name    string `json:"model_name"`
	Version int    `json:"version"`
}

type Contribution struct {
	ID             int64     `json:"contribution_id"`
	ResearcherID   int64     `json:"researcher"`
	ResearcherName string    `json:"researcher_name,omitempty"`
	ModelID        int64     `json:"model"`
	ModelDetails   *ModelRef `json:"model_details,omitempty"`
	Status         string    `json:"status"`
	PointsEarned   int       `json:"points_earned"`
	UploadDate     string    `json:"upload_date,omitempty"`
}

// Aggregatable reports whether the contribution may go into an experimental model.
func (c Contribution) Aggregatable() bool {
	return c.Status == ContributionApproved || c.Status == ContributionAggregated
}

// Pending contributions are the only ones their owner may still delete.
func (c Contribution) Pending() bool {
	return c.Status == ContributionPending
}
