package entity

const (
	ModelStatusExperimental = "experimental"
	ModelStatusActive       = "active"
	ModelStatusArchived     = "archived"
)

// DefaultMetricNames are the metrics every new model starts with at zero.
var DefaultMetricNames = []string{"accuracy", "precision", "recall", "f1_score"}

// Weights is the free-form weights document attached to a model. Only
// weights_url is interpreted here.
type Weights map[string]any

func (w Weights) URL() string {
	if w == nil {
		return ""
	}
	s, _ := w["weights_url"].(string)
	return s
}

type Model struct {
	ID            int64              `json:"model_id"`
	Name          string             `json:"model_name"`
	Description   string             `json:"model_description"`
	Version       int                `json:"version"`
	Status        string             `json:"status"`
	Metrics       map[string]float64 `json:"metrics"`
	Weights       Weights            `json:"weights,omitempty"`
	CreatedDate   string             `json:"created_date,omitempty"`
	PublishedDate string             `json:"published_date,omitempty"`
}

type CommentAuthor struct {
	ID       int64  `json:"user_id"`
	Username string `json:"username"`
}

type Comment struct {
	ID          int64         `json:"comment_id"`
	User        CommentAuthor `json:"user"`
	ModelID     int64         `json:"model_id"`
	Text        string        `json:"comment_text"`
	CommentDate string        `json:"comment_date,omitempty"`
	IsApproved  bool          `json:"is_approved"`
}

type Rating struct {
	ID        int64  `json:"rating_id"`
	UserID    int64  `json:"user"`
	ModelID   int64  `json:"model"`
	Rating    int    `json:"rating"`
	RatedDate string `json:"rated_date,omitempty"`
}
