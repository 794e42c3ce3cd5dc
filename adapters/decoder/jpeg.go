// Package decoder provides format-specific image decoders.
package decoder

import (
	"context"
	"image"
	"image/jpeg"
	"io"

	"github.com/Skryldev/image-compressor/core"
	apperrors "github.com/Skryldev/image-compressor/errors"
)

// JPEG decodes JPEG images using the standard library.
type JPEG struct{}

// NewJPEG returns an initialised JPEG decoder.
func NewJPEG() *JPEG { return &JPEG{} }

func (j *JPEG) CanDecode(format core.Format) bool {
	return format == core.FormatJPEG
}

func (j *JPEG) Decode(ctx context.Context, r io.Reader) (*core.ImageData, error) {
	return decode(ctx, r, core.FormatJPEG, "jpeg.decode", jpeg.Decode)
}

func (j *JPEG) DecodeConfig(ctx context.Context, r io.Reader) (core.Metadata, error) {
	return decodeConfig(ctx, r, core.FormatJPEG, "jpeg.config", jpeg.DecodeConfig)
}

// decode runs fn and wraps the decoded image with its metadata.
func decode(ctx context.Context, r io.Reader, format core.Format, op string, fn func(io.Reader) (image.Image, error)) (*core.ImageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, op, err)
	}

	img, err := fn(r)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, op, err)
	}

	bounds := img.Bounds()
	meta := core.Metadata{
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Format:     format,
		ColorSpace: colorSpace(img),
		HasAlpha:   hasAlpha(img),
	}

	return &core.ImageData{
		Image:  img,
		Format: format,
		Meta:   meta,
	}, nil
}

// decodeConfig reads only the image header.
func decodeConfig(ctx context.Context, r io.Reader, format core.Format, op string, fn func(io.Reader) (image.Config, error)) (core.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return core.Metadata{}, apperrors.Wrap(apperrors.CategoryDecode, op, err)
	}
	cfg, err := fn(r)
	if err != nil {
		return core.Metadata{}, apperrors.Wrap(apperrors.CategoryDecode, op, err)
	}
	return core.Metadata{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// colorSpace returns the colour space of an image.Image.
func colorSpace(img image.Image) core.ColorSpace {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return core.ColorSpaceGray
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		return core.ColorSpaceRGBA
	case *image.CMYK:
		return core.ColorSpaceCMYK
	}
	return core.ColorSpaceRGB
}

func hasAlpha(img image.Image) bool {
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64, *image.Paletted:
		return true
	}
	return false
}
