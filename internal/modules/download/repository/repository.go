package repository

import (
	"context"

	"fedlearn.dev/dashboard/internal/entity"
	"fedlearn.dev/dashboard/pkg/apiclient"
	"gorm.io/gorm"
)

// DownloadRepository is the ledger of batch download items.
type DownloadRepository interface {
	Create(ctx context.Context, rec *entity.DownloadRecord) error
	ByBatch(ctx context.Context, batchID string) ([]entity.DownloadRecord, error)
	ByUser(ctx context.Context, userID int64, limit int) ([]entity.DownloadRecord, error)
}

type downloadRepository struct {
	db *gorm.DB
}

func NewDownloadRepository(db *gorm.DB) DownloadRepository {
	return &downloadRepository{db: db}
}

func (r *downloadRepository) Create(ctx context.Context, rec *entity.DownloadRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *downloadRepository) ByBatch(ctx context.Context, batchID string) ([]entity.DownloadRecord, error) {
	var out []entity.DownloadRecord
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

func (r *downloadRepository) ByUser(ctx context.Context, userID int64, limit int) ([]entity.DownloadRecord, error) {
	var out []entity.DownloadRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ProxyRepository opens files through the platform's Drive proxy.
type ProxyRepository interface {
	Open(ctx context.Context, userID int64, fileURL string) (*apiclient.Stream, error)
}

type proxyRepository struct {
	api *apiclient.Client
}

func NewProxyRepository(api *apiclient.Client) ProxyRepository {
	return &proxyRepository{api: api}
}

func (r *proxyRepository) Open(ctx context.Context, userID int64, fileURL string) (*apiclient.Stream, error) {
	return r.api.Stream(ctx, "/proxy-download/", map[string]string{
		"url":     fileURL,
		"user_id": apiclient.ID(userID),
	}, "Failed to download file")
}
