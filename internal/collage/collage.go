// Package collage composes photos into a single grid image on a colored
// background.
package collage

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultCellSize is the edge of the square box each photo is fit into.
	DefaultCellSize = 300
	// DefaultBorder is the margin around the grid.
	DefaultBorder = 30
)

// Layout describes the grid and canvas for n images.
type Layout struct {
	Count   int
	Columns int
	Rows    int
	Width   int
	Height  int
}

// ComputeLayout returns columns = ceil(sqrt(n)), rows = ceil(n/columns)
// and the canvas size including the border on every side.
// For n <= 0 it returns the zero Layout.
func ComputeLayout(n, cellSize, border int) Layout {
	if n <= 0 {
		return Layout{}
	}
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols
	return Layout{
		Count:   n,
		Columns: cols,
		Rows:    rows,
		Width:   cols*cellSize + 2*border,
		Height:  rows*cellSize + 2*border,
	}
}

// Origin returns the top-left corner of cell i.
func (l Layout) Origin(i, cellSize, border int) image.Point {
	return image.Pt(border+(i%l.Columns)*cellSize, border+(i/l.Columns)*cellSize)
}

// Composer builds collages with a fixed cell size and border.
type Composer struct {
	cellSize int
	border   int
	filter   imaging.ResampleFilter
}

// NewComposer creates a Composer. Non-positive cellSize or negative border
// fall back to the defaults.
func NewComposer(cellSize, border int) *Composer {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	if border < 0 {
		border = DefaultBorder
	}
	return &Composer{
		cellSize: cellSize,
		border:   border,
		filter:   imaging.Lanczos,
	}
}

// Compose decodes images, lays them out and returns the PNG encoding.
// It returns nil, nil when images is empty; callers must skip the upload.
// Any undecodable input fails the whole composition.
func (c *Composer) Compose(images [][]byte, background color.Color) ([]byte, error) {
	if len(images) == 0 {
		return nil, nil
	}

	decoded := make([]image.Image, len(images))
	for i, data := range images {
		img, err := imaging.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode image %d: %w", i, err)
		}
		decoded[i] = img
	}

	canvas := c.ComposeImages(decoded, background)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode collage: %w", err)
	}
	return buf.Bytes(), nil
}

// ComposeImages lays out already decoded images. Thumbnails sit flush at
// their cell's top-left corner; smaller thumbnails are not centered.
func (c *Composer) ComposeImages(images []image.Image, background color.Color) *image.NRGBA {
	layout := ComputeLayout(len(images), c.cellSize, c.border)
	if layout.Count == 0 {
		return nil
	}

	canvas := imaging.New(layout.Width, layout.Height, background)
	for i, img := range images {
		thumb := c.Thumbnail(img)
		canvas = imaging.Paste(canvas, thumb, layout.Origin(i, c.cellSize, c.border))
	}
	return canvas
}

// Thumbnail fits img inside a cellSize square, keeping the aspect ratio.
// Images already inside the box are copied unscaled.
func (c *Composer) Thumbnail(img image.Image) *image.NRGBA {
	return imaging.Fit(img, c.cellSize, c.cellSize, c.filter)
}

// ParseHexColor converts "#rrggbb" to an opaque color.
func ParseHexColor(hex string) (color.NRGBA, error) {
	parsed, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := parsed.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}
