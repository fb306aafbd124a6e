package dto

type ProxyQuery struct {
	URL string `form:"url" binding:"required,url"`
}

type BatchDownloadInput struct {
	ContributionIDs []int64 `json:"contribution_ids" binding:"required,min=1"`
	Folder          string  `json:"folder"`
}

// ItemResult reports one contribution of a batch. Error is empty on success.
type ItemResult struct {
	ContributionID int64  `json:"contribution_id"`
	Path           string `json:"path,omitempty"`
	Bytes          int64  `json:"bytes"`
	Error          string `json:"error,omitempty"`
}

type BatchResult struct {
	BatchID   string       `json:"batch_id"`
	Folder    string       `json:"folder"`
	Items     []ItemResult `json:"items"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
}
