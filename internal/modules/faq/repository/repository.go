package repository

import (
	"context"
	"net/http"

	"fedlearn.dev/dashboard/internal/entity"
	"fedlearn.dev/dashboard/pkg/apiclient"
)

type FAQRepository interface {
	FindAll(ctx context.Context) ([]entity.FAQ, error)
}

type faqRepository struct {
	api *apiclient.Client
}

func NewFAQRepository(api *apiclient.Client) FAQRepository {
	return &faqRepository{api: api}
}

func (r *faqRepository) FindAll(ctx context.Context) ([]entity.FAQ, error) {
	var out []entity.FAQ
	if err := apiclient.Do(r.api.R(ctx), http.MethodGet, "/faq/", &out, "Failed to fetch FAQs"); err != nil {
		return nil, err
	}
	return out, nil
}
