package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// CompareResult describes how two renderings differ.
type CompareResult struct {
	Match           bool
	DifferentPixels int
	TotalPixels     int
	MaxDifference   int // largest channel difference seen, 0-255
}

// CompareOptions tunes Compare.
type CompareOptions struct {
	// Tolerance is the largest per-channel difference still counted as equal.
	Tolerance int
	// FuzzyRadius lets a pixel match any expected pixel within the radius.
	FuzzyRadius int
	// MaxDifferentPercent accepts the images when at most this share of
	// pixels differ.
	MaxDifferentPercent float64
}

// Compare checks actual against expected pixel by pixel. The returned
// image shows the actual rendering in gray with mismatches in red.
func Compare(actual, expected image.Image, opts CompareOptions) (CompareResult, *image.NRGBA, error) {
	ab, eb := actual.Bounds(), expected.Bounds()
	if ab.Size() != eb.Size() {
		return CompareResult{}, nil, fmt.Errorf("image sizes differ: actual=%v, expected=%v", ab.Size(), eb.Size())
	}
	// Normalize both to NRGBA at the origin.
	a, e := imaging.Clone(actual), imaging.Clone(expected)
	diff := imaging.Grayscale(a)

	res := CompareResult{Match: true, TotalPixels: ab.Dx() * ab.Dy()}
	bounds := a.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			d := channelDiff(a.NRGBAAt(x, y), e.NRGBAAt(x, y))
			res.MaxDifference = max(res.MaxDifference, d)
			if d <= opts.Tolerance {
				continue
			}
			if opts.FuzzyRadius > 0 && fuzzyMatch(a, e, x, y, opts.FuzzyRadius, opts.Tolerance) {
				continue
			}
			res.Match = false
			res.DifferentPixels++
			diff.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	if !res.Match && opts.MaxDifferentPercent > 0 && res.TotalPixels > 0 {
		pct := float64(res.DifferentPixels) / float64(res.TotalPixels) * 100
		res.Match = pct <= opts.MaxDifferentPercent
	}
	return res, diff, nil
}

func channelDiff(a, b color.NRGBA) int {
	return max(absDiff(a.R, b.R), absDiff(a.G, b.G), absDiff(a.B, b.B), absDiff(a.A, b.A))
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// fuzzyMatch reports whether the actual pixel at (x, y) matches any
// expected pixel within radius.
func fuzzyMatch(actual, expected *image.NRGBA, x, y, radius, tolerance int) bool {
	px := actual.NRGBAAt(x, y)
	b := expected.Bounds()
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			p := image.Pt(x+dx, y+dy)
			if !p.In(b) {
				continue
			}
			if channelDiff(px, expected.NRGBAAt(p.X, p.Y)) <= tolerance {
				return true
			}
		}
	}
	return false
}
