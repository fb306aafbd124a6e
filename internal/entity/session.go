package entity

import "time"

// Session is the server-side copy of a signed-in user, refreshed on activity.
type Session struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	Timestamp time.Time `json:"timestamp"`
}

// Expired reports whether more than idle has passed since the last activity.
func (s Session) Expired(now time.Time, idle time.Duration) bool {
	return now.Sub(s.Timestamp) > idle
}
