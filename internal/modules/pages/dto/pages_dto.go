package dto

import (
	"fedlearn.dev/dashboard/internal/entity"
	commonDto "fedlearn.dev/dashboard/pkg/dto"
)

// NotAvailable is shown for stats the viewer's role cannot see.
const NotAvailable = "N/A"

// Page wraps every page view model with the viewer and a title.
type Page struct {
	Title string       `json:"title"`
	User  *entity.User `json:"user,omitempty"`
	Data  any          `json:"data"`
}

type Stat struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type QuickAction struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Href        string `json:"href"`
	Highlight   bool   `json:"highlight,omitempty"`
}

type DashboardPage struct {
	Stats        []Stat        `json:"stats"`
	LatestModel  *entity.Model `json:"latest_model,omitempty"`
	QuickActions []QuickAction `json:"quick_actions"`
	// Warnings lists sections that could not be loaded.
	Warnings []string `json:"warnings,omitempty"`
}

type GuideSection struct {
	Heading string   `json:"heading"`
	Items   []string `json:"items"`
}

type CodeExample struct {
	Title string `json:"title"`
	Code  string `json:"code"`
}

type GuideTab struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Sections []GuideSection `json:"sections,omitempty"`
	Examples []CodeExample  `json:"examples,omitempty"`
}

type NotificationsQuery struct {
	Filter string `form:"filter" binding:"omitempty,oneof=all unread read"`
	commonDto.PageQuery
}

type NotificationsPage struct {
	Filter        string                                   `json:"filter"`
	Notifications commonDto.Paginated[entity.Notification] `json:"notifications"`
	UnreadCount   int                                      `json:"unread_count"`
	Error         string                                   `json:"error,omitempty"`
}

type UseModelPage struct {
	Models []entity.Model `json:"models"`
}

type UploadPage struct {
	Models     []entity.Model `json:"models"`
	DriveReady bool           `json:"drive_ready"`
}

type LoginPage struct {
	Authenticated bool `json:"authenticated"`
}
