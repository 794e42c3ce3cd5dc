package encoder

import (
	"context"

	"github.com/chai2010/webp"

	"github.com/Skryldev/image-compressor/core"
	apperrors "github.com/Skryldev/image-compressor/errors"
	"github.com/Skryldev/image-compressor/utils"
)

// WebP encodes images to WebP using libwebp via github.com/chai2010/webp.
// Quality 0-100 is passed through unchanged; Lossless ignores it.
type WebP struct{}

func NewWebP() *WebP { return &WebP{} }

func (w *WebP) CanEncode(format core.Format) bool { return format == core.FormatWebP }

func (w *WebP) Encode(ctx context.Context, img *core.ImageData, opts core.EncodeOptions) ([]byte, error) {
	src, err := source(ctx, img, "webp.encode")
	if err != nil {
		return nil, err
	}

	buf := utils.AcquireBuffer()
	defer utils.ReleaseBuffer(buf)
	err = webp.Encode(buf, src, &webp.Options{
		Lossless: opts.Lossless,
		Quality:  float32(core.ClampQuality(opts.Quality)),
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "webp.encode", err)
	}
	return utils.CloneBytes(buf.Bytes()), nil
}
