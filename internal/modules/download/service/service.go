package service

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"fedlearn.dev/dashboard/internal/entity"
	downloadRepo "fedlearn.dev/dashboard/internal/modules/download/repository"
	"fedlearn.dev/dashboard/internal/modules/download/dto"
	"fedlearn.dev/dashboard/pkg/apiclient"
	"fedlearn.dev/dashboard/pkg/apperror"
)

type DownloadService interface {
	// Open streams a Drive file through the platform proxy. Callers close it.
	Open(ctx context.Context, user entity.User, fileURL string) (*apiclient.Stream, error)
	// Batch downloads contributions into a folder under the export root.
	Batch(ctx context.Context, user entity.User, input dto.BatchDownloadInput) (*dto.BatchResult, error)
	History(ctx context.Context, user entity.User, limit int) ([]entity.DownloadRecord, error)
}

type downloadService struct {
	proxy      downloadRepo.ProxyRepository
	ledger     downloadRepo.DownloadRepository
	downloader *BatchDownloader
	exportDir  string
	now        func() time.Time
}

func NewDownloadService(proxy downloadRepo.ProxyRepository, ledger downloadRepo.DownloadRepository, downloader *BatchDownloader, exportDir string) DownloadService {
	return &downloadService{
		proxy:      proxy,
		ledger:     ledger,
		downloader: downloader,
		exportDir:  exportDir,
		now:        time.Now,
	}
}

func (s *downloadService) Open(ctx context.Context, user entity.User, fileURL string) (*apiclient.Stream, error) {
	u, err := url.Parse(fileURL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return nil, apperror.Invalid("Invalid file URL")
	}
	return s.proxy.Open(ctx, user.ID, fileURL)
}

func (s *downloadService) Batch(ctx context.Context, user entity.User, input dto.BatchDownloadInput) (*dto.BatchResult, error) {
	ids := make([]int64, 0, len(input.ContributionIDs))
	seen := make(map[int64]bool)
	for _, id := range input.ContributionIDs {
		if id > 0 && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, apperror.Invalid("Please select contributions to download")
	}
	if s.exportDir == "" {
		return nil, apperror.Invalid("Server export directory is not configured")
	}

	folder := SafeFolder(input.Folder, s.now())
	return s.downloader.Run(ctx, user, ids, filepath.Join(s.exportDir, folder))
}

func (s *downloadService) History(ctx context.Context, user entity.User, limit int) ([]entity.DownloadRecord, error) {
	if s.ledger == nil {
		return []entity.DownloadRecord{}, nil
	}
	if limit < 1 {
		limit = 50
	}
	return s.ledger.ByUser(ctx, user.ID, limit)
}

var unsafeFolderChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeFolder reduces name to one path segment. Empty or dot-only names get
// a timestamped default.
func SafeFolder(name string, now time.Time) string {
	name = filepath.Base(filepath.Clean("/" + strings.TrimSpace(name)))
	name = unsafeFolderChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if strings.Trim(name, "_") == "" {
		return fmt.Sprintf("contributions_%s", now.Format("20060102_150405"))
	}
	return name
}
