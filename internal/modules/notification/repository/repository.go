package repository

import (
	"context"
	"fmt"
	"net/http"

	"fedlearn.dev/dashboard/internal/entity"
	"fedlearn.dev/dashboard/pkg/apiclient"
)

type NotificationRepository interface {
	GetByUserID(ctx context.Context, userID int64) ([]entity.Notification, error)
	MarkAsRead(ctx context.Context, userID, id int64) error
	MarkAllAsRead(ctx context.Context, userID int64) error
	Delete(ctx context.Context, userID, id int64) error
}

type notificationRepository struct {
	api *apiclient.Client
}

func NewNotificationRepository(api *apiclient.Client) NotificationRepository {
	return &notificationRepository{api: api}
}

func (r *notificationRepository) GetByUserID(ctx context.Context, userID int64) ([]entity.Notification, error) {
	var out []entity.Notification
	req := r.api.R(ctx).SetQueryParam("user_id", apiclient.ID(userID))
	if err := apiclient.Do(req, http.MethodGet, "/notifications/", &out, "Failed to fetch notifications"); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, userID, id int64) error {
	req := r.api.R(ctx).SetBody(map[string]int64{"user_id": userID})
	return apiclient.Do(req, http.MethodPut, fmt.Sprintf("/notifications/%d/read/", id), nil, "Failed to mark notification as read")
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID int64) error {
	req := r.api.R(ctx).SetBody(map[string]int64{"user_id": userID})
	return apiclient.Do(req, http.MethodPut, "/notifications/mark-all-read/", nil, "Failed to mark all notifications as read")
}

func (r *notificationRepository) Delete(ctx context.Context, userID, id int64) error {
	req := r.api.R(ctx).SetQueryParam("user_id", apiclient.ID(userID))
	return apiclient.Do(req, http.MethodDelete, fmt.Sprintf("/notifications/%d/delete/", id), nil, "Failed to delete notification")
}
