package decoder

import (
	"context"
	"io"

	"golang.org/x/image/webp"

	"github.com/Skryldev/image-compressor/core"
)

// WebP decodes WebP images using golang.org/x/image/webp, which handles both
// lossy (VP8) and lossless (VP8L) bitstreams but not animation.
type WebP struct{}

func NewWebP() *WebP { return &WebP{} }

func (w *WebP) CanDecode(format core.Format) bool {
	return format == core.FormatWebP
}

func (w *WebP) Decode(ctx context.Context, r io.Reader) (*core.ImageData, error) {
	return decode(ctx, r, core.FormatWebP, "webp.decode", webp.Decode)
}

func (w *WebP) DecodeConfig(ctx context.Context, r io.Reader) (core.Metadata, error) {
	return decodeConfig(ctx, r, core.FormatWebP, "webp.config", webp.DecodeConfig)
}
