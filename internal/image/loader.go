// Package image provides utilities for loading and sampling product images.
package image

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"os"
	"strings"
	"time"

	_ "golang.org/x/image/webp" // Register WebP format

	httputil "github.com/jmylchreest/chromatag/internal/util/http"
	"github.com/jmylchreest/chromatag/internal/util/imagecache"
)

// Loader handles loading images from various sources.
type Loader interface {
	// Load loads and decodes an image from the given path or URL.
	Load(ctx context.Context, path string) (image.Image, error)
}

// FileLoader loads images from the local filesystem.
type FileLoader struct{}

// NewFileLoader creates a new FileLoader instance.
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// Load loads an image from a file path.
// Supported formats: JPEG, PNG, GIF, WebP.
func (l *FileLoader) Load(_ context.Context, path string) (image.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("image path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image (format: %s): %w", format, err)
	}

	return img, nil
}

// SmartLoader loads images from both local files and HTTP(S) URLs.
type SmartLoader struct {
	fileLoader *FileLoader
	timeout    time.Duration
	cacheDir   string
	useCache   bool
}

// NewSmartLoader creates a new SmartLoader instance. A zero timeout uses
// the HTTP helper's default.
func NewSmartLoader(timeout time.Duration) *SmartLoader {
	return &SmartLoader{
		fileLoader: NewFileLoader(),
		timeout:    timeout,
	}
}

// WithCache enables on-disk caching of downloaded images so repeated runs
// over the same catalog reuse downloads. An empty dir uses the default
// cache location.
func (l *SmartLoader) WithCache(dir string) *SmartLoader {
	l.cacheDir = dir
	l.useCache = true
	return l
}

// Load loads an image from either a local file path or HTTP(S) URL.
func (l *SmartLoader) Load(ctx context.Context, path string) (image.Image, error) {
	if IsURL(path) {
		return l.loadFromURL(ctx, path)
	}
	return l.fileLoader.Load(ctx, path)
}

// loadFromURL fetches and decodes an image from an HTTP(S) URL, going
// through the download cache when enabled.
func (l *SmartLoader) loadFromURL(ctx context.Context, url string) (image.Image, error) {
	if l.useCache {
		cachedPath, err := imagecache.DownloadAndCache(ctx, url, imagecache.CacheOptions{
			CacheDir: l.cacheDir,
			Timeout:  l.timeout,
		})
		if err != nil {
			return nil, err
		}
		return l.fileLoader.Load(ctx, cachedPath)
	}

	data, err := httputil.Fetch(ctx, url, httputil.FetchOptions{Timeout: l.timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image from URL: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image (format: %s): %w", format, err)
	}

	return img, nil
}

// IsURL reports whether the path refers to a remote HTTP(S) resource.
func IsURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// ValidateImagePath checks that the given path is a URL or an existing,
// decodable local image file.
func ValidateImagePath(path string) error {
	if path == "" {
		return fmt.Errorf("image path cannot be empty")
	}
	if IsURL(path) {
		// Actual fetching happens later; nothing more to check here.
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("image file not found: %s", path)
		}
		return fmt.Errorf("failed to access image path: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	if _, _, err := image.DecodeConfig(file); err != nil {
		return fmt.Errorf("unsupported or invalid image format: %w", err)
	}

	return nil
}
