package decoder

import (
	"context"
	"image"
	"image/gif"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/Skryldev/image-compressor/core"
)

// Source-only formats: they decode, but never appear as an output codec.

// Legacy decodes GIF (first frame), BMP and TIFF sources.
type Legacy struct {
	format   core.Format
	decodeFn func(io.Reader) (image.Image, error)
	configFn func(io.Reader) (image.Config, error)
}

func NewGIF() *Legacy  { return &Legacy{format: core.FormatGIF, decodeFn: gif.Decode, configFn: gif.DecodeConfig} }
func NewBMP() *Legacy  { return &Legacy{format: core.FormatBMP, decodeFn: bmp.Decode, configFn: bmp.DecodeConfig} }
func NewTIFF() *Legacy { return &Legacy{format: core.FormatTIFF, decodeFn: tiff.Decode, configFn: tiff.DecodeConfig} }

func (l *Legacy) CanDecode(format core.Format) bool { return format == l.format }

func (l *Legacy) Decode(ctx context.Context, r io.Reader) (*core.ImageData, error) {
	return decode(ctx, r, l.format, string(l.format)+".decode", l.decodeFn)
}

func (l *Legacy) DecodeConfig(ctx context.Context, r io.Reader) (core.Metadata, error) {
	return decodeConfig(ctx, r, l.format, string(l.format)+".config", l.configFn)
}
