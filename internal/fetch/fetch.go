// Package fetch resolves document references to local filesystem paths.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// ToLocal resolves ref to a local file path. Supported forms:
// - plain filesystem paths and file://path
// - http(s):// URLs, downloaded to a temp file
// - s3://bucket/key, downloaded to a temp file via the AWS SDK
// The returned cleanup removes any temp file and is always safe to call.
func ToLocal(ctx context.Context, ref string) (string, func(), error) {
	// Strip optional #page fragment if present
	if i := strings.Index(ref, "#"); i >= 0 {
		ref = ref[:i]
	}

	noop := func() {}
	switch {
	case strings.HasPrefix(ref, "s3://"):
		path, err := downloadS3ToTemp(ctx, ref)
		if err != nil {
			return "", noop, err
		}
		return path, func() { os.Remove(path) }, nil
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		path, err := downloadHTTPToTemp(ctx, ref)
		if err != nil {
			return "", noop, err
		}
		return path, func() { os.Remove(path) }, nil
	case strings.HasPrefix(ref, "file://"):
		return strings.TrimPrefix(ref, "file://"), noop, nil
	default:
		// treat as filesystem path
		return ref, noop, nil
	}
}

func downloadHTTPToTemp(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("bad http ref: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("http %d", resp.StatusCode)
	}
	f, err := os.CreateTemp("", "gsraster-*.pdf")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func downloadS3ToTemp(ctx context.Context, s3url string) (string, error) {
	// s3://bucket/key
	path := strings.TrimPrefix(s3url, "s3://")
	slash := strings.Index(path, "/")
	if slash <= 0 {
		return "", fmt.Errorf("invalid s3 url: %s", s3url)
	}
	bucket := path[:slash]
	key := path[slash+1:]

	// Region from env or default chain
	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return "", err
	}
	downloader := manager.NewDownloader(s3.NewFromConfig(cfg))

	f, err := os.CreateTemp("", "gsraster-s3-*.pdf")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := downloader.Download(ctx, f, &s3.GetObjectInput{Bucket: &bucket, Key: &key}); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	log.Info().Str("bucket", bucket).Str("key", key).Str("file", filepath.Base(f.Name())).Msg("downloaded s3 pdf to temp")
	return f.Name(), nil
}
