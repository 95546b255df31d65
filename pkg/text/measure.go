package text

import (
	"math"
	"sync"

	"github.com/fogleman/gg"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Measurer reports text metrics for layout.
type Measurer interface {
	Measure(s string, f FontID, size float64) (w, h float64)
	LineHeight(f FontID, size float64) float64
}

type faceKey struct {
	path string
	size float64
}

// GGMeasurer measures with TrueType faces loaded through gg. Faces are
// cached per file and size. When a file cannot be loaded the 7x13 bitmap
// face is used, scaled to the requested size.
type GGMeasurer struct {
	fonts FontConfig
	log   *zap.Logger

	mu     sync.Mutex
	faces  map[faceKey]font.Face
	failed map[string]bool
}

// NewGGMeasurer creates a measurer over the faces in fonts.
func NewGGMeasurer(fonts FontConfig, log *zap.Logger) *GGMeasurer {
	if log == nil {
		log = zap.NewNop()
	}
	return &GGMeasurer{
		fonts:  fonts,
		log:    log.Named("text"),
		faces:  make(map[faceKey]font.Face),
		failed: make(map[string]bool),
	}
}

const fallbackSize = 13

// Face returns the face for f at size and the factor by which its metrics
// must be scaled.
func (m *GGMeasurer) Face(f FontID, size float64) (font.Face, float64) {
	path := m.fonts.Path(f)
	m.mu.Lock()
	defer m.mu.Unlock()
	if path == "" || m.failed[path] {
		return basicfont.Face7x13, size / fallbackSize
	}
	key := faceKey{path, size}
	if face, ok := m.faces[key]; ok {
		return face, 1
	}
	face, err := gg.LoadFontFace(path, size)
	if err != nil {
		m.failed[path] = true
		m.log.Warn("Unable to load font, using bitmap face", zap.String("path", path), zap.Error(err))
		return basicfont.Face7x13, size / fallbackSize
	}
	m.faces[key] = face
	return face, 1
}

func (m *GGMeasurer) Measure(s string, f FontID, size float64) (w, h float64) {
	face, scale := m.Face(f, size)
	adv := font.MeasureString(face, s)
	return float64(adv) / 64 * scale, m.lineHeight(face, scale)
}

func (m *GGMeasurer) LineHeight(f FontID, size float64) float64 {
	face, scale := m.Face(f, size)
	return m.lineHeight(face, scale)
}

func (m *GGMeasurer) lineHeight(face font.Face, scale float64) float64 {
	return math.Ceil(float64(face.Metrics().Height) / 64 * scale)
}

// FixedMeasurer gives every rune the same advance. Whitespace uses Space.
// Heights are Line, or the font size when Line is zero.
type FixedMeasurer struct {
	Char  float64
	Space float64
	Line  float64
}

func (m FixedMeasurer) Measure(s string, f FontID, size float64) (w, h float64) {
	for _, r := range s {
		if r == ' ' || r == '\t' {
			w += m.Space
		} else {
			w += m.Char
		}
	}
	return w, m.LineHeight(f, size)
}

func (m FixedMeasurer) LineHeight(_ FontID, size float64) float64 {
	if m.Line > 0 {
		return m.Line
	}
	return size
}
