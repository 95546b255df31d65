package resource

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Fetcher retrieves linked resources by URI.
type Fetcher interface {
	Fetch(uri string) ([]byte, error)
}

// FileFetcher reads resources from disk, resolving relative URIs against a
// base directory.
type FileFetcher struct {
	baseDir string
}

// NewFileFetcher creates a FileFetcher rooted at baseDir.
func NewFileFetcher(baseDir string) *FileFetcher {
	return &FileFetcher{baseDir: baseDir}
}

// Fetch reads uri. file: URIs are accepted; any other scheme is an error.
func (f *FileFetcher) Fetch(uri string) ([]byte, error) {
	path := strings.TrimPrefix(uri, "file://")
	if scheme, _, ok := strings.Cut(path, "://"); ok {
		return nil, fmt.Errorf("cannot fetch %s URI: %s", scheme, uri)
	}
	if !filepath.IsAbs(path) && f.baseDir != "" {
		path = filepath.Join(f.baseDir, path)
	}
	return os.ReadFile(path)
}
