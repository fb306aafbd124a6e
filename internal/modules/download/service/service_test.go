package service

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fedlearn.dev/dashboard/internal/entity"
	contribRepo "fedlearn.dev/dashboard/internal/modules/contribution/repository"
	downloadRepo "fedlearn.dev/dashboard/internal/modules/download/repository"
	"fedlearn.dev/dashboard/internal/modules/download/dto"
	"fedlearn.dev/dashboard/internal/testutil"
	"fedlearn.dev/dashboard/pkg/apperror"
	"fedlearn.dev/dashboard/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var admin = entity.User{ID: 1, Username: "root", Role: entity.RoleAdmin}

func setupDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

type fixture struct {
	platform *testutil.Platform
	ledger   downloadRepo.DownloadRepository
	root     string
	svc      DownloadService
}

func newFixture(t *testing.T) *fixture {
	p := testutil.NewPlatform(t)
	p.AddUser(admin, "pw")
	p.AddModel(entity.Model{ID: 10, Name: "mnist", Version: 1})

	p.AddContribution(entity.Contribution{ID: 1, ResearcherID: 2, ModelID: 10, Status: "approved"}, "https://drive.google.com/uc?id=one")
	p.AddContribution(entity.Contribution{ID: 2, ResearcherID: 2, ModelID: 10, Status: "approved"}, "https://drive.google.com/uc?id=missing")
	p.AddContribution(entity.Contribution{ID: 3, ResearcherID: 2, ModelID: 10, Status: "approved"}, "https://files.example.com/bundle.json")
	p.AddContribution(entity.Contribution{ID: 4, ResearcherID: 2, ModelID: 10, Status: "pending"}, "")
	p.ContribFiles[4] = ""
	p.Files["https://drive.google.com/uc?id=one"] = "\x89HDF\r\n\x1a\nweights"
	p.Files["https://files.example.com/bundle.json"] = `{"weights":[1],"architecture":"cnn"}`

	api := p.Client()
	ledger := downloadRepo.NewDownloadRepository(setupDB(t))
	proxy := downloadRepo.NewProxyRepository(api)
	downloader := NewBatchDownloader(contribRepo.NewContributionRepository(api), proxy, ledger)

	root := t.TempDir()
	return &fixture{
		platform: p,
		ledger:   ledger,
		root:     root,
		svc:      NewDownloadService(proxy, ledger, downloader, root),
	}
}

func TestBatchContinuesPastFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Batch(ctx, admin, dto.BatchDownloadInput{ContributionIDs: []int64{1, 2, 3, 4, 99, 1}, Folder: "round-7"})
	require.NoError(t, err)
	assert.Equal(t, "round-7", res.Folder)
	require.Len(t, res.Items, 5)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 3, res.Failed)

	dir := filepath.Join(f.root, "round-7")
	assert.Equal(t, filepath.Join(dir, "contribution_1.h5"), res.Items[0].Path)
	assert.Equal(t, "File not found", res.Items[1].Error)
	assert.Equal(t, filepath.Join(dir, "contribution_3.json"), res.Items[2].Path)
	assert.Equal(t, "contribution 4 has no weights file", res.Items[3].Error)
	assert.Equal(t, "Contribution not found", res.Items[4].Error)

	data, err := os.ReadFile(filepath.Join(dir, "contribution_3.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"weights":[1],"architecture":"cnn"}`, string(data))
	assert.Equal(t, int64(len(data)), res.Items[2].Bytes)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "failed items leave no partial files")

	recs, err := f.ledger.ByBatch(ctx, res.BatchID)
	require.NoError(t, err)
	require.Len(t, recs, 5)
	assert.Equal(t, int64(2), recs[1].ContributionID)
	assert.Equal(t, "File not found", recs[1].Error)

	history, err := f.svc.History(ctx, admin, 0)
	require.NoError(t, err)
	assert.Len(t, history, 5)
}

func TestBatchRequiresSelection(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Batch(context.Background(), admin, dto.BatchDownloadInput{ContributionIDs: []int64{0, -3}})
	assert.EqualError(t, err, "Please select contributions to download")
}

func TestBatchStopsFetchingWhenCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.svc.Batch(ctx, admin, dto.BatchDownloadInput{ContributionIDs: []int64{1, 3}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Failed)
	assert.Zero(t, f.platform.CallCount("GET /contributions/:id/weights/"))
}

func TestSafeFolder(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	assert.Equal(t, "round-7", SafeFolder("round-7", now))
	assert.Equal(t, "etc", SafeFolder("../../etc", now))
	assert.Equal(t, "my_exports", SafeFolder("my exports", now))
	assert.Equal(t, "hidden", SafeFolder(".hidden", now))
	assert.Equal(t, "contributions_20240506_070809", SafeFolder("", now))
	assert.Equal(t, "contributions_20240506_070809", SafeFolder("..", now))
	assert.Equal(t, "contributions_20240506_070809", SafeFolder("/", now))
}

func TestOpenRejectsNonHTTPURL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Open(ctx, admin, "file:///etc/passwd")
	assert.EqualError(t, err, "Invalid file URL")

	stream, err := f.svc.Open(ctx, admin, "https://drive.google.com/uc?id=one")
	require.NoError(t, err)
	defer stream.Close()
	assert.Contains(t, stream.Disposition, "weights.h5")

	_, err = f.svc.Open(ctx, admin, "https://drive.google.com/uc?id=missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperror.MapErrorToStatus(err))
}
