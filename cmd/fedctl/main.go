// Command fedctl pulls models and contribution files from the platform
// without going through the dashboard.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"fedlearn.dev/dashboard/internal/entity"
	auditService "fedlearn.dev/dashboard/internal/modules/audit/service"
	authRepo "fedlearn.dev/dashboard/internal/modules/auth/repository"
	counterRepo "fedlearn.dev/dashboard/internal/modules/analytics/repository"
	contribRepo "fedlearn.dev/dashboard/internal/modules/contribution/repository"
	downloadRepo "fedlearn.dev/dashboard/internal/modules/download/repository"
	downloadService "fedlearn.dev/dashboard/internal/modules/download/service"
	modelRepo "fedlearn.dev/dashboard/internal/modules/model/repository"
	modelService "fedlearn.dev/dashboard/internal/modules/model/service"
	searchService "fedlearn.dev/dashboard/internal/modules/search/service"
	"fedlearn.dev/dashboard/pkg/apiclient"
	"fedlearn.dev/dashboard/pkg/logger"
	"fedlearn.dev/dashboard/pkg/ratelimit"
)

const usage = `usage: fedctl -api URL -user NAME -password PASS <command> [flags]

commands:
  models                                 list active models
  pull-model -id N -out DIR              write the model bundle JSON
  pull-contributions -ids 1,2 -out DIR   download contribution weights
`

func main() {
	api := flag.String("api", envOr("PLATFORM_API_URL", "http://localhost:8000/api"), "platform API base URL")
	user := flag.String("user", os.Getenv("FEDLEARN_USER"), "platform username")
	password := flag.String("password", os.Getenv("FEDLEARN_PASSWORD"), "platform password")
	timeout := flag.Duration("timeout", 5*time.Minute, "per-request timeout")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	logger.Setup(!*verbose)

	if flag.NArg() < 1 || *user == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	client := apiclient.New(apiclient.Config{
		BaseURL:     strings.TrimRight(*api, "/"),
		Timeout:     *timeout,
		LongTimeout: *timeout,
		Attempts:    3,
		RetryWait:   time.Second,
	})

	ctx := context.Background()
	me, err := authRepo.NewAuthRepository(client).Login(ctx, *user, *password)
	if err != nil {
		fatal(err)
	}

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "models":
		err = listModels(ctx, client, *me)
	case "pull-model":
		err = pullModel(ctx, client, *me, args)
	case "pull-contributions":
		err = pullContributions(ctx, client, *me, args)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		fatal(err)
	}
}

func listModels(ctx context.Context, client *apiclient.Client, me entity.User) error {
	models, err := modelRepo.NewModelRepository(client).FindAll(ctx, me.ID, entity.ModelStatusActive)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tVERSION\tCREATED")
	for _, m := range models {
		fmt.Fprintf(w, "%d\t%s\tv%d\t%s\n", m.ID, m.Name, m.Version, m.CreatedDate)
	}
	return w.Flush()
}

func pullModel(ctx context.Context, client *apiclient.Client, me entity.User, args []string) error {
	fs := flag.NewFlagSet("pull-model", flag.ExitOnError)
	id := fs.Int64("id", 0, "model id")
	out := fs.String("out", ".", "output directory")
	_ = fs.Parse(args)
	if *id <= 0 {
		return fmt.Errorf("-id is required")
	}

	svc := modelService.NewModelService(
		modelRepo.NewModelRepository(client),
		searchService.NewMemoryModelIndex(),
		counterRepo.NewMemoryDownloadCounter(),
		ratelimit.New(nil),
		auditService.NewAuditService(nil),
		0,
	)
	b, name, err := svc.Bundle(ctx, me, *id)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}
	path := filepath.Join(*out, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func pullContributions(ctx context.Context, client *apiclient.Client, me entity.User, args []string) error {
	fs := flag.NewFlagSet("pull-contributions", flag.ExitOnError)
	rawIDs := fs.String("ids", "", "comma separated contribution ids")
	out := fs.String("out", ".", "output directory")
	_ = fs.Parse(args)

	ids, err := parseIDs(*rawIDs)
	if err != nil {
		return err
	}

	downloader := downloadService.NewBatchDownloader(
		contribRepo.NewContributionRepository(client),
		downloadRepo.NewProxyRepository(client),
		nil,
	)
	res, err := downloader.Run(ctx, me, ids, *out)
	if err != nil {
		return err
	}

	for _, item := range res.Items {
		if item.Error != "" {
			fmt.Printf("FAIL  %d  %s\n", item.ContributionID, item.Error)
		} else {
			fmt.Printf("OK    %d  %s (%d bytes)\n", item.ContributionID, item.Path, item.Bytes)
		}
	}
	fmt.Printf("%d succeeded, %d failed\n", res.Succeeded, res.Failed)
	if res.Failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", res.Failed, len(res.Items))
	}
	return nil
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid contribution id %q", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("-ids is required")
	}
	return ids, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "fedctl:", err)
	os.Exit(1)
}
