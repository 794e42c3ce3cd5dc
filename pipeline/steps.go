package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/Skryldev/image-compressor/core"
	apperrors "github.com/Skryldev/image-compressor/errors"
)

// ── Decode ────────────────────────────────────────────────────────────────────

// DecodeStep decodes raw bytes in img.Data into an image.Image.
type DecodeStep struct {
	Registry core.Registry
}

func (s *DecodeStep) Name() string { return "decode" }

func (s *DecodeStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	if img.Image != nil {
		return img, nil // already decoded
	}
	if len(img.Data) == 0 {
		return nil, apperrors.New(apperrors.CategoryDecode, s.Name(), apperrors.ErrEmptyInput)
	}
	dec, ok := s.Registry.DecoderFor(img.Format)
	if !ok {
		return nil, apperrors.New(apperrors.CategoryDecode, s.Name(),
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, img.Format))
	}

	decoded, err := dec.Decode(ctx, bytes.NewReader(img.Data))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, s.Name(), err)
	}

	// Preserve the raw data bytes alongside the decoded representation.
	decoded.Data = img.Data
	decoded.OriginalSize = img.OriginalSize
	return decoded, nil
}

// ── Resize ────────────────────────────────────────────────────────────────────

// ResizeStep resamples the image to exactly Width×Height.  Callers compute
// the target with utils.ScaleToFit so the aspect ratio is preserved.
type ResizeStep struct {
	Width, Height int
	Resampler     Resampler
}

func (s *ResizeStep) Name() string { return "resize" }

func (s *ResizeStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}

	src, ok := img.Image.(image.Image)
	if !ok || src == nil {
		return nil, apperrors.New(apperrors.CategoryPipeline, s.Name(), apperrors.ErrEmptyInput)
	}
	// A zero-area target cannot be serialised by any encoder.
	if s.Width <= 0 || s.Height <= 0 {
		return nil, apperrors.New(apperrors.CategoryEncode, s.Name(),
			fmt.Errorf("%w: %dx%d", apperrors.ErrInvalidDimensions, s.Width, s.Height))
	}

	srcB := src.Bounds()
	if s.Width == srcB.Dx() && s.Height == srcB.Dy() {
		return img, nil // nothing to do
	}

	sampler := s.Resampler
	if sampler == "" {
		sampler = ResamplerCatmullRom
	}
	dst := sampler.scale(src, s.Width, s.Height)

	out := *img
	out.Image = dst
	out.Meta.Width = s.Width
	out.Meta.Height = s.Height
	return &out, nil
}

// ── Format conversion ─────────────────────────────────────────────────────────

// FormatStep sets the output format for the subsequent encode step.
type FormatStep struct {
	Format core.Format
}

func (s *FormatStep) Name() string { return "format" }

func (s *FormatStep) Execute(_ context.Context, img *core.ImageData) (*core.ImageData, error) {
	out := *img
	out.Format = s.Format
	out.Meta.Format = s.Format
	return &out, nil
}

// ── Encode ────────────────────────────────────────────────────────────────────

// EncodeStep serialises the image.Image into encoded bytes using the registry.
type EncodeStep struct {
	Registry core.Registry
	Options  core.EncodeOptions
}

func (s *EncodeStep) Name() string { return "encode" }

func (s *EncodeStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	enc, ok := s.Registry.EncoderFor(img.Format)
	if !ok {
		return nil, apperrors.New(apperrors.CategoryEncode, s.Name(),
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, img.Format))
	}

	data, err := enc.Encode(ctx, img, s.Options)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, s.Name(), err)
	}
	if len(data) == 0 {
		return nil, apperrors.New(apperrors.CategoryEncode, s.Name(), apperrors.ErrEmptyOutput)
	}

	out := *img
	out.Data = data
	out.Meta.SizeBytes = int64(len(data))
	return &out, nil
}
