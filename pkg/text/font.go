package text

import (
	"path/filepath"
	"strconv"
	"strings"
)

// FontID names a face independent of its size.
type FontID struct {
	Family string
	Bold   bool
	Italic bool
}

// NewFontID maps cascaded font properties to a FontID. Weights of 600 and
// above count as bold.
func NewFontID(family, style, weight string) FontID {
	id := FontID{Family: strings.ToLower(strings.Trim(family, `"' `))}
	switch style {
	case "italic", "oblique":
		id.Italic = true
	}
	switch weight {
	case "bold", "bolder":
		id.Bold = true
	default:
		if n, err := strconv.Atoi(weight); err == nil && n >= 600 {
			id.Bold = true
		}
	}
	return id
}

// Mono reports whether the family asks for a fixed-pitch face.
func (f FontID) Mono() bool {
	switch f.Family {
	case "monospace", "mono", "courier", "courier new":
		return true
	}
	return false
}

func (f FontID) String() string {
	var b strings.Builder
	b.WriteString(f.Family)
	if b.Len() == 0 {
		b.WriteString("sans-serif")
	}
	if f.Bold {
		b.WriteString(" bold")
	}
	if f.Italic {
		b.WriteString(" italic")
	}
	return b.String()
}

// FontConfig holds paths to font files used for text measurement and
// rendering. Empty paths fall back to the built-in bitmap face.
type FontConfig struct {
	Regular    string `yaml:"regular"`
	Bold       string `yaml:"bold"`
	Italic     string `yaml:"italic"`
	BoldItalic string `yaml:"bold_italic"`
	Monospace  string `yaml:"monospace"`
	MonoBold   string `yaml:"mono_bold"`
}

// FontConfigIn returns a FontConfig for the Atkinson Hyperlegible files in dir.
func FontConfigIn(dir string) FontConfig {
	return FontConfig{
		Regular:    filepath.Join(dir, "AtkinsonHyperlegible-Regular.ttf"),
		Bold:       filepath.Join(dir, "AtkinsonHyperlegible-Bold.ttf"),
		Italic:     filepath.Join(dir, "AtkinsonHyperlegible-Italic.ttf"),
		BoldItalic: filepath.Join(dir, "AtkinsonHyperlegible-BoldItalic.ttf"),
		Monospace:  filepath.Join(dir, "AtkinsonHyperlegibleMono-Regular.otf"),
		MonoBold:   filepath.Join(dir, "AtkinsonHyperlegibleMono-Bold.otf"),
	}
}

// Path returns the font file for id.
func (fc FontConfig) Path(id FontID) string {
	if id.Mono() {
		if id.Bold && fc.MonoBold != "" {
			return fc.MonoBold
		}
		if fc.Monospace != "" {
			return fc.Monospace
		}
		// fall through to proportional if no mono font configured
	}
	if id.Bold && id.Italic && fc.BoldItalic != "" {
		return fc.BoldItalic
	}
	if id.Bold && fc.Bold != "" {
		return fc.Bold
	}
	if id.Italic && fc.Italic != "" {
		return fc.Italic
	}
	return fc.Regular
}
