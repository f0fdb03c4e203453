package collage

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red    = color.NRGBA{R: 255, A: 255}
	yellow = color.NRGBA{R: 0xfd, G: 0xe0, B: 0x47, A: 0xff}
)

// solidImage creates a w×h image filled with c.
func solidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// encodePNG returns the PNG encoding of a solid image.
func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solidImage(w, h, c)))
	return buf.Bytes()
}

func TestComputeLayout(t *testing.T) {
	tests := []struct {
		n          int
		cols, rows int
	}{
		{0, 0, 0},
		{1, 1, 1},
		{2, 2, 1},
		{3, 2, 2},
		{4, 2, 2},
		{5, 3, 2},
		{9, 3, 3},
		{10, 4, 3},
	}

	for _, tt := range tests {
		layout := ComputeLayout(tt.n, DefaultCellSize, DefaultBorder)

		assert.Equal(t, tt.cols, layout.Columns, "columns for n=%d", tt.n)
		assert.Equal(t, tt.rows, layout.Rows, "rows for n=%d", tt.n)

		if tt.n == 0 {
			assert.Equal(t, Layout{}, layout)
			continue
		}
		assert.Equal(t, int(math.Ceil(math.Sqrt(float64(tt.n)))), layout.Columns)
		assert.Equal(t, tt.cols*300+60, layout.Width, "width for n=%d", tt.n)
		assert.Equal(t, tt.rows*300+60, layout.Height, "height for n=%d", tt.n)
	}
}

func TestLayout_Origin(t *testing.T) {
	layout := ComputeLayout(5, 300, 30)

	assert.Equal(t, image.Pt(30, 30), layout.Origin(0, 300, 30))
	assert.Equal(t, image.Pt(330, 30), layout.Origin(1, 300, 30))
	assert.Equal(t, image.Pt(630, 30), layout.Origin(2, 300, 30))
	assert.Equal(t, image.Pt(30, 330), layout.Origin(3, 300, 30))
	assert.Equal(t, image.Pt(330, 330), layout.Origin(4, 300, 30))
}

func TestCompose_empty(t *testing.T) {
	out, err := NewComposer(0, -1).Compose(nil, yellow)

	assert.NoError(t, err)
	assert.Nil(t, out)
}

func TestCompose_fourSquares(t *testing.T) {
	images := make([][]byte, 4)
	for i := range images {
		images[i] = encodePNG(t, 400, 400, red)
	}

	out, err := NewComposer(DefaultCellSize, DefaultBorder).Compose(images, yellow)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 660, img.Bounds().Dx())
	assert.Equal(t, 660, img.Bounds().Dy())

	// border keeps the background color
	assertColor(t, yellow, img.At(5, 5))
	assertColor(t, yellow, img.At(655, 655))
	// every cell is covered
	for _, p := range []image.Point{{40, 40}, {340, 40}, {40, 340}, {620, 620}} {
		assertColor(t, red, img.At(p.X, p.Y))
	}
}

func TestCompose_flushTopLeft(t *testing.T) {
	// wide image becomes 300×100 and must not be vertically centered
	wide := encodePNG(t, 900, 300, red)

	out, err := NewComposer(300, 30).Compose([][]byte{wide}, yellow)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 360, img.Bounds().Dx())
	assert.Equal(t, 360, img.Bounds().Dy())

	assertColor(t, red, img.At(35, 35))
	assertColor(t, red, img.At(320, 120))
	assertColor(t, yellow, img.At(35, 140))
	assertColor(t, yellow, img.At(180, 320))
}

func TestCompose_mixedFormats(t *testing.T) {
	var jpg bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, solidImage(120, 80, red), &jpeg.Options{Quality: 90}))

	out, err := NewComposer(300, 30).Compose([][]byte{encodePNG(t, 50, 50, red), jpg.Bytes()}, yellow)
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 660, cfg.Width)
	assert.Equal(t, 360, cfg.Height)
}

func TestCompose_undecodable(t *testing.T) {
	images := [][]byte{encodePNG(t, 10, 10, red), []byte("definitely not an image")}

	out, err := NewComposer(300, 30).Compose(images, yellow)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode image 1")
	assert.Nil(t, out)
}

func TestThumbnail_bounds(t *testing.T) {
	c := NewComposer(300, 30)

	tests := []struct {
		name       string
		w, h       int
		wantW      int
		wantH      int
	}{
		{"landscape downscale", 1200, 600, 300, 150},
		{"portrait downscale", 600, 1200, 150, 300},
		{"square downscale", 1000, 1000, 300, 300},
		{"small image not upscaled", 100, 50, 100, 50},
		{"exact fit", 300, 300, 300, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thumb := c.Thumbnail(solidImage(tt.w, tt.h, red))
			b := thumb.Bounds()

			assert.LessOrEqual(t, b.Dx(), 300)
			assert.LessOrEqual(t, b.Dy(), 300)
			assert.Equal(t, tt.wantW, b.Dx())
			assert.Equal(t, tt.wantH, b.Dy())

			srcRatio := float64(tt.w) / float64(tt.h)
			gotRatio := float64(b.Dx()) / float64(b.Dy())
			assert.InDelta(t, srcRatio, gotRatio, 0.02)
		})
	}
}

func TestThumbnail_oddAspect(t *testing.T) {
	thumb := NewComposer(300, 30).Thumbnail(solidImage(1000, 333, red))

	assert.Equal(t, 300, thumb.Bounds().Dx())
	assert.InDelta(t, 99.9, float64(thumb.Bounds().Dy()), 1)
}

func TestParseHexColor(t *testing.T) {
	got, err := ParseHexColor("#fde047")
	require.NoError(t, err)
	assert.Equal(t, yellow, got)

	_, err = ParseHexColor("yellow")
	assert.Error(t, err)
}

func assertColor(t *testing.T, want color.NRGBA, got color.Color) {
	t.Helper()
	g := color.NRGBAModel.Convert(got).(color.NRGBA)
	assert.Equal(t, want, g)
}
