package images

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"
)

// ErrNotImage is returned for data that does not sniff as an image.
var ErrNotImage = errors.New("images: not an image")

// Info is the layout-facing view of an image.
type Info struct {
	Width, Height int
	Ready         bool
	Err           error
}

// Provider answers synchronously whether an image is ready and how large it
// is. Unready images report 0x0.
type Provider interface {
	Load(name string) Info
}

type entry struct {
	img  image.Image
	err  error
	done bool
}

// Loader decodes images in the background. Load never blocks: the first
// call for a name starts a decode and reports the image as not ready.
type Loader struct {
	log     *zap.Logger
	baseDir string
	sem     chan struct{}
	group   singleflight.Group
	wg      sync.WaitGroup

	mu      sync.Mutex
	entries map[string]*entry
	closed  bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithWorkers bounds the number of concurrent decodes.
func WithWorkers(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.sem = make(chan struct{}, n)
		}
	}
}

// WithBaseDir resolves relative file names against dir.
func WithBaseDir(dir string) Option {
	return func(l *Loader) { l.baseDir = dir }
}

// NewLoader creates a loader. Call Close to wait for running decodes.
func NewLoader(log *zap.Logger, opts ...Option) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Loader{
		log:     log.Named("images"),
		sem:     make(chan struct{}, 4),
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reports the state of name, starting a background decode on first use.
func (l *Loader) Load(name string) Info {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[name]; ok {
		if !e.done {
			return Info{}
		}
		if e.err != nil {
			return Info{Ready: true, Err: e.err}
		}
		b := e.img.Bounds()
		return Info{Width: b.Dx(), Height: b.Dy(), Ready: true}
	}
	if l.closed {
		return Info{Ready: true, Err: errors.New("images: loader closed")}
	}
	e := &entry{}
	l.entries[name] = e
	l.wg.Add(1)
	go l.run(name, e)
	return Info{}
}

func (l *Loader) run(name string, e *entry) {
	defer l.wg.Done()
	l.sem <- struct{}{}
	defer func() { <-l.sem }()

	img, err := l.Decode(name)
	if err != nil {
		l.log.Debug("Unable to load image", zap.String("name", short(name)), zap.Error(err))
	}
	l.mu.Lock()
	e.img, e.err, e.done = img, err, true
	l.mu.Unlock()
}

// Image returns the decoded image once it is ready.
func (l *Loader) Image(name string) (image.Image, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[name]
	if !ok || !e.done || e.err != nil {
		return nil, false
	}
	return e.img, true
}

// Decode loads name synchronously. Concurrent calls for the same name,
// including the one made by a background load, share one decode.
func (l *Loader) Decode(name string) (image.Image, error) {
	v, err, _ := l.group.Do(name, func() (any, error) {
		data, err := l.read(name)
		if err != nil {
			return nil, err
		}
		return decode(data)
	})
	if err != nil {
		return nil, fmt.Errorf("loading image %q: %w", short(name), err)
	}
	return v.(image.Image), nil
}

// Wait blocks until every started decode has finished.
func (l *Loader) Wait() { l.wg.Wait() }

// Close stops accepting new loads and waits for running decodes.
func (l *Loader) Close() error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.wg.Wait()
	return nil
}

func (l *Loader) read(name string) ([]byte, error) {
	if IsDataURI(name) {
		return decodeDataURI(name)
	}
	path := name
	if l.baseDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(l.baseDir, path)
	}
	return os.ReadFile(path)
}

func decode(data []byte) (image.Image, error) {
	if !filetype.IsImage(data) {
		return nil, ErrNotImage
	}
	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
}

// IsDataURI reports whether s is a data: URI.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}

func decodeDataURI(uri string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, errors.New("data URI without payload")
	}
	if strings.HasSuffix(meta, ";base64") {
		return base64.StdEncoding.DecodeString(payload)
	}
	s, err := url.PathUnescape(payload)
	return []byte(s), err
}

// short keeps data URIs out of log lines.
func short(name string) string {
	if IsDataURI(name) && len(name) > 32 {
		return name[:32] + "..."
	}
	return name
}
