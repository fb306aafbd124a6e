package entity

// GDriveConfig is the Google Drive link a user publishes to. Secrets never
// leave the server in responses; see Redacted.
type GDriveConfig struct {
	ClientID         string `json:"client_id"`
	ClientSecret     string `json:"client_secret,omitempty"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	ContributionsURL string `json:"contributions_url,omitempty"`
	ModelsURL        string `json:"models_url,omitempty"`
}

func (g *GDriveConfig) CanPublishModels() bool {
	return g != nil && g.ClientID != "" && g.ModelsURL != ""
}

func (g *GDriveConfig) CanUploadContributions() bool {
	return g != nil && g.ClientID != "" && g.ContributionsURL != ""
}

func (g *GDriveConfig) Redacted() *GDriveConfig {
	if g == nil {
		return nil
	}
	out := *g
	out.ClientSecret = ""
	out.RefreshToken = ""
	return &out
}

type User struct {
	ID          int64         `json:"user_id"`
	Username    string        `json:"username"`
	Email       string        `json:"email"`
	Role        Role          `json:"role"`
	TotalPoints int           `json:"total_points"`
	IsActive    bool          `json:"is_active"`
	CreatedAt   string        `json:"created_at,omitempty"`
	GDrive      *GDriveConfig `json:"gdrive,omitempty"`
}

// Public strips Drive credentials.
func (u User) Public() User {
	u.GDrive = u.GDrive.Redacted()
	return u
}
