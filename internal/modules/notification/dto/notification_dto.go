package dto

import (
	"fedlearn.dev/dashboard/internal/entity"
	commonDto "fedlearn.dev/dashboard/pkg/dto"
)

const (
	FilterAll    = "all"
	FilterUnread = "unread"
	FilterRead   = "read"
)

type NotificationQuery struct {
	Filter string `form:"filter" binding:"omitempty,oneof=all unread read"`
	commonDto.PageQuery
}

type NotificationListResponse struct {
	Data        []entity.Notification    `json:"data"`
	Meta        commonDto.PaginationMeta `json:"meta"`
	UnreadCount int                      `json:"unread_count"`
	Error       string                   `json:"error,omitempty"`
}

// Event is pushed to websocket subscribers when a new unread notification appears.
type Event struct {
	Type         string              `json:"type"`
	Notification entity.Notification `json:"notification"`
	UnreadCount  int                 `json:"unread_count"`
}
