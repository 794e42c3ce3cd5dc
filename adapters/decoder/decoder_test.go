package decoder_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/Skryldev/image-compressor/adapters/decoder"
	"github.com/Skryldev/image-compressor/core"
	apperrors "github.com/Skryldev/image-compressor/errors"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 90, A: 255})
		}
	}
	return img
}

func encodeWith(t *testing.T, fn func(io.Writer, image.Image) error, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, fn(&buf, img))
	return buf.Bytes()
}

func TestDecoders(t *testing.T) {
	src := gradient(64, 48)
	tests := []struct {
		name   string
		dec    core.Decoder
		format core.Format
		data   []byte
	}{
		{"jpeg", decoder.NewJPEG(), core.FormatJPEG, encodeWith(t, func(w io.Writer, m image.Image) error {
			return jpeg.Encode(w, m, &jpeg.Options{Quality: 90})
		}, src)},
		{"png", decoder.NewPNG(), core.FormatPNG, encodeWith(t, png.Encode, src)},
		{"webp", decoder.NewWebP(), core.FormatWebP, encodeWith(t, func(w io.Writer, m image.Image) error {
			return webp.Encode(w, m, &webp.Options{Quality: 80})
		}, src)},
		{"gif", decoder.NewGIF(), core.FormatGIF, encodeWith(t, func(w io.Writer, m image.Image) error {
			return gif.Encode(w, m, nil)
		}, src)},
		{"bmp", decoder.NewBMP(), core.FormatBMP, encodeWith(t, bmp.Encode, src)},
		{"tiff", decoder.NewTIFF(), core.FormatTIFF, encodeWith(t, func(w io.Writer, m image.Image) error {
			return tiff.Encode(w, m, nil)
		}, src)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			assert.True(t, tt.dec.CanDecode(tt.format))

			meta, err := tt.dec.DecodeConfig(ctx, bytes.NewReader(tt.data))
			require.NoError(t, err)
			assert.Equal(t, 64, meta.Width)
			assert.Equal(t, 48, meta.Height)
			assert.Equal(t, tt.format, meta.Format)

			img, err := tt.dec.Decode(ctx, bytes.NewReader(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.format, img.Format)
			assert.Equal(t, core.Dimensions{Width: 64, Height: 48}, img.Meta.Dimensions())
			_, ok := img.Image.(image.Image)
			assert.True(t, ok)
		})
	}
}

func TestDecode_Corrupt(t *testing.T) {
	_, err := decoder.NewJPEG().Decode(context.Background(), bytes.NewReader([]byte("\xff\xd8\xffnot really")))
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryDecode))

	_, err = decoder.NewPNG().DecodeConfig(context.Background(), bytes.NewReader(nil))
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryDecode))
}

func TestDecode_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := decoder.NewPNG().Decode(ctx, bytes.NewReader(nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCanDecode_Rejects(t *testing.T) {
	assert.False(t, decoder.NewJPEG().CanDecode(core.FormatPNG))
	assert.False(t, decoder.NewGIF().CanDecode(core.FormatBMP))
}
