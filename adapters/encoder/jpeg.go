// Package encoder provides the output codecs: JPEG, PNG and WebP.
package encoder

import (
	"context"
	"image"
	"image/jpeg"

	"github.com/Skryldev/image-compressor/core"
	apperrors "github.com/Skryldev/image-compressor/errors"
	"github.com/Skryldev/image-compressor/utils"
)

// JPEG encodes images to JPEG format.
type JPEG struct{}

func NewJPEG() *JPEG { return &JPEG{} }

func (j *JPEG) CanEncode(format core.Format) bool {
	return format == core.FormatJPEG
}

// Encode maps quality 0-100 onto the stdlib scale 1-100.
func (j *JPEG) Encode(ctx context.Context, img *core.ImageData, opts core.EncodeOptions) ([]byte, error) {
	src, err := source(ctx, img, "jpeg.encode")
	if err != nil {
		return nil, err
	}

	quality := max(core.ClampQuality(opts.Quality), 1)

	buf := utils.AcquireBuffer()
	defer utils.ReleaseBuffer(buf)
	if err := jpeg.Encode(buf, src, &jpeg.Options{Quality: quality}); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "jpeg.encode", err)
	}
	return utils.CloneBytes(buf.Bytes()), nil
}

// source extracts a non-empty image.Image from img.
func source(ctx context.Context, img *core.ImageData, op string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, op, err)
	}
	src, ok := img.Image.(image.Image)
	if !ok || src == nil {
		return nil, apperrors.New(apperrors.CategoryEncode, op, apperrors.ErrEmptyInput)
	}
	if src.Bounds().Empty() {
		return nil, apperrors.New(apperrors.CategoryEncode, op, apperrors.ErrInvalidDimensions)
	}
	return src, nil
}
