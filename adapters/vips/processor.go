//go:build vips

// Package vips is a libvips-backed core.Transcoder.  Build with -tags vips;
// libvips must be installed.
package vips

import (
	"context"
	"fmt"
	"runtime"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/Skryldev/image-compressor/core"
	apperrors "github.com/Skryldev/image-compressor/errors"
)

// BackendConfig configures the libvips backend.
type BackendConfig struct {
	MaxCacheSize int
	MaxWorkers   int
	ReportLeaks  bool
}

// Backend decodes, resizes and encodes with libvips.
// Safe for concurrent use across goroutines.
type Backend struct {
	cfg BackendConfig
}

// NewBackend initialises libvips and returns a ready Backend.
// Call Shutdown() when the process exits.
func NewBackend(cfg BackendConfig) *Backend {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = runtime.NumCPU()
	}
	govips.Startup(&govips.Config{
		ConcurrencyLevel: cfg.MaxWorkers,
		MaxCacheSize:     cfg.MaxCacheSize,
		ReportLeaks:      cfg.ReportLeaks,
	})
	return &Backend{cfg: cfg}
}

// Shutdown releases all libvips resources. Call once at process exit.
func (b *Backend) Shutdown() {
	govips.Shutdown()
}

// Probe loads the image header and reports its dimensions.
func (b *Backend) Probe(ctx context.Context, data []byte) (core.Metadata, error) {
	ref, err := b.load(ctx, data, "vips.probe")
	if err != nil {
		return core.Metadata{}, err
	}
	defer ref.Close()
	return core.Metadata{
		Width:      ref.Width(),
		Height:     ref.Height(),
		Format:     vipsFormatToCore(ref.Format()),
		ColorSpace: vipsInterpretationToColorSpace(ref.Interpretation()),
		HasAlpha:   ref.HasAlpha(),
		SizeBytes:  int64(len(data)),
	}, nil
}

// Transcode resizes with the Lanczos3 kernel and exports as format.
func (b *Backend) Transcode(ctx context.Context, data []byte, dims core.Dimensions, format core.ResolvedFormat, quality int) ([]byte, error) {
	if dims.Width <= 0 || dims.Height <= 0 {
		return nil, apperrors.New(apperrors.CategoryEncode, "vips.resize", apperrors.ErrInvalidDimensions)
	}
	ref, err := b.load(ctx, data, "vips.decode")
	if err != nil {
		return nil, err
	}
	defer ref.Close()

	if dims.Width != ref.Width() || dims.Height != ref.Height() {
		h := float64(dims.Width) / float64(ref.Width())
		v := float64(dims.Height) / float64(ref.Height())
		if err := ref.ResizeWithVScale(h, v, govips.KernelLanczos3); err != nil {
			return nil, apperrors.Wrap(apperrors.CategoryEncode, "vips.resize", err)
		}
	}

	// libvips rejects quality 0.
	q := max(core.ClampQuality(quality), 1)

	var out []byte
	switch format.Format {
	case core.FormatJPEG:
		ep := govips.NewJpegExportParams()
		ep.Quality = q
		out, _, err = ref.ExportJpeg(ep)
	case core.FormatPNG:
		out, _, err = ref.ExportPng(govips.NewPngExportParams())
	case core.FormatWebP:
		ep := govips.NewWebpExportParams()
		ep.Quality = q
		out, _, err = ref.ExportWebp(ep)
	default:
		return nil, apperrors.New(apperrors.CategoryEncode, "vips.encode",
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, format.Format))
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "vips.encode."+string(format.Format), err)
	}
	if len(out) == 0 {
		return nil, apperrors.New(apperrors.CategoryEncode, "vips.encode", apperrors.ErrEmptyOutput)
	}
	return out, nil
}

func (b *Backend) load(ctx context.Context, data []byte, op string) (*govips.ImageRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, op, err)
	}
	if len(data) == 0 {
		return nil, apperrors.New(apperrors.CategoryDecode, op, apperrors.ErrEmptyInput)
	}
	ref, err := govips.NewImageFromBuffer(data)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, op, err)
	}
	return ref, nil
}

// ─── helpers ──────────────────────────────────────────────────────────────────

func vipsFormatToCore(f govips.ImageType) core.Format {
	switch f {
	case govips.ImageTypeJPEG:
		return core.FormatJPEG
	case govips.ImageTypePNG:
		return core.FormatPNG
	case govips.ImageTypeWEBP:
		return core.FormatWebP
	case govips.ImageTypeGIF:
		return core.FormatGIF
	case govips.ImageTypeTIFF:
		return core.FormatTIFF
	case govips.ImageTypeBMP:
		return core.FormatBMP
	default:
		return core.FormatUnknown
	}
}

func vipsInterpretationToColorSpace(i govips.Interpretation) core.ColorSpace {
	switch i {
	case govips.InterpretationBW:
		return core.ColorSpaceGray
	case govips.InterpretationCMYK:
		return core.ColorSpaceCMYK
	default:
		return core.ColorSpaceRGB
	}
}

var _ core.Transcoder = (*Backend)(nil)
