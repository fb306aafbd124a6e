package repository

import (
	"context"
	"fmt"
	"net/http"

	"fedlearn.dev/dashboard/internal/entity"
	"fedlearn.dev/dashboard/pkg/apiclient"
)

type AdminRepository interface {
	Users(ctx context.Context, adminID int64) ([]entity.User, error)
	DeleteUser(ctx context.Context, adminID, userID int64) error
	AssignRole(ctx context.Context, adminID, userID int64, role entity.Role) error
	CreateFAQ(ctx context.Context, adminID int64, question, answer string) (*entity.FAQ, error)
}

type adminRepository struct {
	api *apiclient.Client
}

func NewAdminRepository(api *apiclient.Client) AdminRepository {
	return &adminRepository{api: api}
}

func (r *adminRepository) Users(ctx context.Context, adminID int64) ([]entity.User, error) {
	var out []entity.User
	req := r.api.R(ctx).SetQueryParam("admin_id", apiclient.ID(adminID))
	if err := apiclient.Do(req, http.MethodGet, "/users/", &out, "Failed to fetch users"); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *adminRepository) DeleteUser(ctx context.Context, adminID, userID int64) error {
	req := r.api.R(ctx).SetQueryParam("admin_id", apiclient.ID(adminID))
	return apiclient.Do(req, http.MethodDelete, fmt.Sprintf("/users/%d/delete/", userID), nil, "Failed to delete user")
}

func (r *adminRepository) AssignRole(ctx context.Context, adminID, userID int64, role entity.Role) error {
	body := map[string]any{"admin_id": adminID, "user_id": userID, "role_id": int(role)}
	return apiclient.Do(r.api.R(ctx).SetBody(body), http.MethodPost, "/users/assign-role/", nil, "Failed to assign role")
}

func (r *adminRepository) CreateFAQ(ctx context.Context, adminID int64, question, answer string) (*entity.FAQ, error) {
	body := map[string]any{"created_by": adminID, "question": question, "answer": answer}
	var out entity.FAQ
	if err := apiclient.Do(r.api.R(ctx).SetBody(body), http.MethodPost, "/faq/create/", &out, "Failed to create FAQ"); err != nil {
		return nil, err
	}
	return &out, nil
}
