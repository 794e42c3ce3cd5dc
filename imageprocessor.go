// Package imageprocessor compresses batches of images: each file is decoded,
// optionally shrunk to fit a maximum dimension, re-encoded at a chosen
// quality and format, and reported with its size savings and output name.
package imageprocessor

import (
	"context"

	"github.com/Skryldev/image-compressor/adapters/decoder"
	"github.com/Skryldev/image-compressor/adapters/encoder"
	"github.com/Skryldev/image-compressor/config"
	"github.com/Skryldev/image-compressor/core"
	apperrors "github.com/Skryldev/image-compressor/errors"
	"github.com/Skryldev/image-compressor/pipeline"
	"github.com/Skryldev/image-compressor/utils"
)

// Re-export output format constants for convenience.
const (
	Original = core.OutputPreserve
	JPEG     = core.OutputJPEG
	PNG      = core.OutputPNG
	WebP     = core.OutputWebP
)

// DefaultConfig returns a sensible production configuration.
func DefaultConfig() config.Config { return config.Default() }

// Processor is the primary entry point.
type Processor struct {
	inner      *core.Processor
	reg        *core.DefaultRegistry
	transcoder *pipeline.Transcoder
}

// New creates a fully wired Processor with the JPEG, PNG, WebP, GIF, BMP and
// TIFF decoders and the JPEG, PNG and WebP encoders registered.  An unknown
// cfg.Resampler falls back to CatmullRom; use config.Validate to reject it.
func New(cfg config.Config) *Processor {
	reg := NewRegistry(cfg)
	resampler, err := pipeline.ParseResampler(cfg.Resampler)
	if err != nil {
		resampler = pipeline.ResamplerCatmullRom
	}
	t := pipeline.NewTranscoder(reg, resampler)
	return &Processor{inner: core.New(cfg, t), reg: reg, transcoder: t}
}

// NewWithTranscoder creates a Processor that delegates decode/resample/encode
// to t, e.g. the libvips backend.
func NewWithTranscoder(cfg config.Config, t core.Transcoder) *Processor {
	return &Processor{inner: core.New(cfg, t)}
}

// NewRegistry returns a registry with every built-in codec.
func NewRegistry(cfg config.Config) *core.DefaultRegistry {
	reg := core.NewRegistry()
	reg.RegisterDecoder(core.FormatJPEG, decoder.NewJPEG())
	reg.RegisterDecoder(core.FormatPNG, decoder.NewPNG())
	reg.RegisterDecoder(core.FormatWebP, decoder.NewWebP())
	reg.RegisterDecoder(core.FormatGIF, decoder.NewGIF())
	reg.RegisterDecoder(core.FormatBMP, decoder.NewBMP())
	reg.RegisterDecoder(core.FormatTIFF, decoder.NewTIFF())
	reg.RegisterEncoder(core.FormatJPEG, encoder.NewJPEG())
	reg.RegisterEncoder(core.FormatPNG, encoder.NewPNG(encoder.ParseCompression(cfg.PNGCompression)))
	reg.RegisterEncoder(core.FormatWebP, encoder.NewWebP())
	return reg
}

// SetLogger attaches a structured logger.
func (p *Processor) SetLogger(l core.Logger) { p.inner.SetLogger(l) }

// SetMetrics attaches a metrics collector.
func (p *Processor) SetMetrics(m core.MetricsCollector) { p.inner.SetMetrics(m) }

// AddHook registers an observer for pipeline step events.  Hooks only apply
// to the built-in transcoder.
func (p *Processor) AddHook(h core.Hook) {
	if p.transcoder != nil {
		p.transcoder.AddHook(h)
	}
}

// RegisterDecoder registers a custom decoder for the given format.
func (p *Processor) RegisterDecoder(f core.Format, d core.Decoder) {
	if p.reg != nil {
		p.reg.RegisterDecoder(f, d)
	}
}

// RegisterEncoder registers a custom encoder for the given format.
func (p *Processor) RegisterEncoder(f core.Format, e core.Encoder) {
	if p.reg != nil {
		p.reg.RegisterEncoder(f, e)
	}
}

// Start starts the background worker pool used by Submit.
func (p *Processor) Start() { p.inner.Start() }

// Stop drains and shuts down the worker pool.
func (p *Processor) Stop() { p.inner.Stop() }

// Submit enqueues an async single-file job for the worker pool.
func (p *Processor) Submit(job core.Job) error { return p.inner.Submit(job) }

// ProcessBatch processes every source and returns one outcome per source, in
// input order.  One file's failure never affects another.
func (p *Processor) ProcessBatch(ctx context.Context, sources []core.SourceImage, params core.Params) []core.Outcome {
	return p.inner.ProcessBatch(ctx, sources, params)
}

// Process processes a single source.
func (p *Processor) Process(ctx context.Context, src core.SourceImage, params core.Params) core.Outcome {
	return p.inner.Process(ctx, src, params)
}

// Transcode decodes data, resamples it to dims and encodes it as format.
func (p *Processor) Transcode(ctx context.Context, data []byte, dims core.Dimensions, format core.ResolvedFormat, quality int) ([]byte, error) {
	return p.inner.Transcoder().Transcode(ctx, data, dims, format, quality)
}

// Stats returns lightweight processing statistics.
func (p *Processor) Stats() (processed, errors int64) {
	return p.inner.ProcessedCount(), p.inner.ErrorCount()
}

// ParamsFromConfig builds batch parameters from cfg.
func ParamsFromConfig(cfg config.Config) (core.Params, error) {
	f, err := core.ParseOutputFormat(cfg.Format)
	if err != nil {
		return core.Params{}, apperrors.New(apperrors.CategoryConfig, "params", err)
	}
	return core.Params{
		Quality:      cfg.Quality,
		MaxDimension: cfg.MaxDimension,
		Format:       f,
	}.Normalize(), nil
}

// ── Source constructors ────────────────────────────────────────────────────────

// FromBytes creates a SourceImage.  contentType may be empty.
func FromBytes(data []byte, contentType, name string) core.SourceImage {
	return core.SourceImage{Data: data, ContentType: contentType, Name: name}
}

// ── Pure entry points ─────────────────────────────────────────────────────────

// Scale returns the dimensions of a width×height image fitted within maxSize.
func Scale(width, height, maxSize int) core.Dimensions {
	w, h := utils.ScaleToFit(width, height, maxSize)
	return core.Dimensions{Width: w, Height: h}
}

// ResolveFormat picks the concrete output codec for a request.
func ResolveFormat(requested core.OutputFormat, declaredType string) core.ResolvedFormat {
	return core.ResolveFormat(requested, declaredType)
}

// SavingsPercent returns the clamped percentage reduction.
func SavingsPercent(original, compressed int64) int {
	return utils.SavingsPercent(original, compressed)
}

// OutputName returns the suggested output filename.
func OutputName(original, ext string) string { return utils.OutputName(original, ext) }
