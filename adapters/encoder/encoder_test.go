package encoder_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xwebp "golang.org/x/image/webp"

	"github.com/Skryldev/image-compressor/adapters/encoder"
	"github.com/Skryldev/image-compressor/core"
	apperrors "github.com/Skryldev/image-compressor/errors"
)

func sample(w, h int) *core.ImageData {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 255})
		}
	}
	return &core.ImageData{Image: img, Meta: core.Metadata{Width: w, Height: h}}
}

func TestJPEG_QualityRange(t *testing.T) {
	enc := encoder.NewJPEG()
	assert.True(t, enc.CanEncode(core.FormatJPEG))
	for _, q := range []int{0, 1, 50, 100, 150, -20} {
		out, err := enc.Encode(context.Background(), sample(40, 30), core.EncodeOptions{Quality: q})
		require.NoError(t, err, "quality %d", q)
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, 40, cfg.Width)
		assert.Equal(t, 30, cfg.Height)
	}
}

func TestJPEG_HigherQualityIsLarger(t *testing.T) {
	enc := encoder.NewJPEG()
	low, err := enc.Encode(context.Background(), sample(128, 128), core.EncodeOptions{Quality: 10})
	require.NoError(t, err)
	high, err := enc.Encode(context.Background(), sample(128, 128), core.EncodeOptions{Quality: 95})
	require.NoError(t, err)
	assert.Less(t, len(low), len(high))
}

func TestPNG_Levels(t *testing.T) {
	for _, level := range []string{"default", "none", "speed", "best", "bogus"} {
		enc := encoder.NewPNG(encoder.ParseCompression(level))
		out, err := enc.Encode(context.Background(), sample(20, 10), core.EncodeOptions{Quality: 3})
		require.NoError(t, err, level)
		cfg, err := png.DecodeConfig(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, 20, cfg.Width)
	}
	assert.Equal(t, png.BestSpeed, encoder.ParseCompression("speed"))
	assert.Equal(t, png.DefaultCompression, encoder.ParseCompression(""))
}

func TestWebP_Encode(t *testing.T) {
	enc := encoder.NewWebP()
	assert.True(t, enc.CanEncode(core.FormatWebP))
	assert.False(t, enc.CanEncode(core.FormatJPEG))

	for _, opts := range []core.EncodeOptions{{Quality: 0}, {Quality: 75}, {Quality: 100}, {Lossless: true}} {
		out, err := enc.Encode(context.Background(), sample(33, 17), opts)
		require.NoError(t, err)
		cfg, err := xwebp.DecodeConfig(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, 33, cfg.Width)
		assert.Equal(t, 17, cfg.Height)
	}
}

func TestEncode_RejectsMissingOrEmptyImage(t *testing.T) {
	ctx := context.Background()
	_, err := encoder.NewJPEG().Encode(ctx, &core.ImageData{}, core.EncodeOptions{})
	assert.ErrorIs(t, err, apperrors.ErrEmptyInput)

	empty := &core.ImageData{Image: image.NewNRGBA(image.Rect(0, 0, 0, 5))}
	_, err = encoder.NewPNG(png.DefaultCompression).Encode(ctx, empty, core.EncodeOptions{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidDimensions)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryEncode))
}
