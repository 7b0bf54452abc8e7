package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// DefaultCacheDir is where remote datasets are stored between runs.
const DefaultCacheDir = "~/.cache/booklens/datasets"

// DownloadConfig configures dataset downloading
type DownloadConfig struct {
	CacheDir      string
	ForceDownload bool
	Token         string // bearer token for private dataset hosts
	HTTPClient    *http.Client
}

// Downloader fetches remote dataset files into a local cache
type Downloader struct {
	config DownloadConfig
}

// NewDownloader creates a new dataset downloader
func NewDownloader(config DownloadConfig) *Downloader {
	if config.CacheDir == "" {
		config.CacheDir = DefaultCacheDir
	}
	if strings.HasPrefix(config.CacheDir, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			config.CacheDir = filepath.Join(home, config.CacheDir[1:])
		}
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 10 * time.Minute}
	}
	return &Downloader{config: config}
}

// Resolve returns a local path for src. Local paths are returned unchanged;
// http(s) URLs are downloaded once and served from the cache afterwards.
func (d *Downloader) Resolve(ctx context.Context, src string) (string, error) {
	u, err := url.Parse(src)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return src, nil
	}

	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return "", fmt.Errorf("dataset URL has no file name: %s", src)
	}

	cacheDir := filepath.Join(d.config.CacheDir, u.Host)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	cachedPath := filepath.Join(cacheDir, name)

	if !d.config.ForceDownload {
		if _, err := os.Stat(cachedPath); err == nil {
			slog.Info("Using cached dataset", "path", cachedPath)
			return cachedPath, nil
		}
	}

	slog.Info("Downloading dataset", "url", src)
	if err := d.downloadFile(ctx, src, cachedPath); err != nil {
		return "", fmt.Errorf("failed to download dataset: %w", err)
	}
	slog.Info("Dataset downloaded successfully", "path", cachedPath)
	return cachedPath, nil
}

// ClearCache removes all cached dataset files
func (d *Downloader) ClearCache() error {
	slog.Info("Clearing cache", "path", d.config.CacheDir)
	return os.RemoveAll(d.config.CacheDir)
}

func (d *Downloader) downloadFile(ctx context.Context, src, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if d.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+d.config.Token)
	}

	resp, err := d.config.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	tempPath := destPath + ".tmp"
	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("download failed: %w", err)
	}
	slog.Debug("Download complete", "bytes", written)

	if err := os.Rename(tempPath, destPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to move file: %w", err)
	}
	return nil
}

// LoadOrDownload resolves src through the cache and returns a loader for it
func LoadOrDownload(ctx context.Context, src string, config DownloadConfig) (*Loader, error) {
	datasetPath, err := NewDownloader(config).Resolve(ctx, src)
	if err != nil {
		return nil, err
	}
	return NewLoader(datasetPath), nil
}
