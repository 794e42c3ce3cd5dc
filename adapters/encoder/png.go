package encoder

import (
	"context"
	"image/png"

	"github.com/Skryldev/image-compressor/core"
	apperrors "github.com/Skryldev/image-compressor/errors"
	"github.com/Skryldev/image-compressor/utils"
)

// PNG encodes images to PNG format.  PNG is lossless, so the quality option
// is ignored; only the zlib effort is configurable.
type PNG struct {
	level png.CompressionLevel
}

func NewPNG(level png.CompressionLevel) *PNG { return &PNG{level: level} }

// ParseCompression maps "default", "none", "speed" and "best" to a level.
func ParseCompression(s string) png.CompressionLevel {
	switch s {
	case "none":
		return png.NoCompression
	case "speed":
		return png.BestSpeed
	case "best":
		return png.BestCompression
	}
	return png.DefaultCompression
}

func (p *PNG) CanEncode(format core.Format) bool { return format == core.FormatPNG }

func (p *PNG) Encode(ctx context.Context, img *core.ImageData, _ core.EncodeOptions) ([]byte, error) {
	src, err := source(ctx, img, "png.encode")
	if err != nil {
		return nil, err
	}

	enc := &png.Encoder{CompressionLevel: p.level}
	buf := utils.AcquireBuffer()
	defer utils.ReleaseBuffer(buf)
	if err := enc.Encode(buf, src); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "png.encode", err)
	}
	return utils.CloneBytes(buf.Bytes()), nil
}
