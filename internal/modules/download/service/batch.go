package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"fedlearn.dev/dashboard/internal/entity"
	downloadRepo "fedlearn.dev/dashboard/internal/modules/download/repository"
	"fedlearn.dev/dashboard/internal/modules/download/dto"
	"fedlearn.dev/dashboard/pkg/logger"
	"github.com/google/uuid"
)

// WeightsSource resolves a contribution to its weights document.
type WeightsSource interface {
	Weights(ctx context.Context, userID, contributionID int64) (entity.Weights, error)
}

// BatchDownloader fetches contribution files one after another into a
// directory. A failed item is reported and the loop moves on.
type BatchDownloader struct {
	weights WeightsSource
	proxy   downloadRepo.ProxyRepository
	ledger  downloadRepo.DownloadRepository
}

// NewBatchDownloader accepts a nil ledger; items are then only reported.
func NewBatchDownloader(weights WeightsSource, proxy downloadRepo.ProxyRepository, ledger downloadRepo.DownloadRepository) *BatchDownloader {
	return &BatchDownloader{weights: weights, proxy: proxy, ledger: ledger}
}

func (b *BatchDownloader) Run(ctx context.Context, user entity.User, ids []int64, dir string) (*dto.BatchResult, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	res := &dto.BatchResult{
		BatchID: uuid.NewString(),
		Folder:  filepath.Base(dir),
		Items:   make([]dto.ItemResult, 0, len(ids)),
	}
	log := logger.For(logger.DOWNLOAD).With("batch_id", res.BatchID, "user_id", user.ID)

	for _, id := range ids {
		item := dto.ItemResult{ContributionID: id}
		if ctx.Err() != nil {
			item.Error = ctx.Err().Error()
		} else if p, n, err := b.fetch(ctx, user, id, dir); err != nil {
			item.Error = err.Error()
		} else {
			item.Path, item.Bytes = p, n
		}

		if item.Error != "" {
			res.Failed++
			log.Warn("contribution download failed", "contribution_id", id, "error", item.Error)
		} else {
			res.Succeeded++
		}
		res.Items = append(res.Items, item)
		b.record(ctx, res.BatchID, user.ID, item)
	}

	log.Info("batch download finished", "succeeded", res.Succeeded, "failed", res.Failed)
	return res, nil
}

func (b *BatchDownloader) fetch(ctx context.Context, user entity.User, id int64, dir string) (string, int64, error) {
	w, err := b.weights.Weights(ctx, user.ID, id)
	if err != nil {
		return "", 0, err
	}
	if w.URL() == "" {
		return "", 0, fmt.Errorf("contribution %d has no weights file", id)
	}

	stream, err := b.proxy.Open(ctx, user.ID, w.URL())
	if err != nil {
		return "", 0, err
	}
	defer stream.Close()

	target := filepath.Join(dir, fmt.Sprintf("contribution_%d%s", id, extension(w.URL(), stream.ContentType)))
	n, err := writeFile(target, stream.Body)
	if err != nil {
		return "", 0, err
	}
	return target, n, nil
}

// writeFile writes through a .part file so a broken stream never leaves a
// truncated file under the final name.
func writeFile(target string, r io.Reader) (int64, error) {
	part := target + ".part"
	f, err := os.Create(part)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(part)
		return 0, err
	}
	if err := os.Rename(part, target); err != nil {
		os.Remove(part)
		return 0, err
	}
	return n, nil
}

// extension is ".json" for JSON bundles and ".h5" otherwise.
func extension(fileURL, contentType string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt == "application/json" {
		return ".json"
	}
	if strings.EqualFold(path.Ext(strings.SplitN(fileURL, "?", 2)[0]), ".json") {
		return ".json"
	}
	return ".h5"
}

func (b *BatchDownloader) record(ctx context.Context, batchID string, userID int64, item dto.ItemResult) {
	if b.ledger == nil {
		return
	}
	rec := &entity.DownloadRecord{
		BatchID:        batchID,
		UserID:         userID,
		ContributionID: item.ContributionID,
		Path:           item.Path,
		Bytes:          item.Bytes,
		Error:          item.Error,
	}
	if err := b.ledger.Create(context.WithoutCancel(ctx), rec); err != nil {
		logger.For(logger.DOWNLOAD).Error("failed to record download", "batch_id", batchID, "error", err)
	}
}
