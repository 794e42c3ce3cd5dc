package core

import (
	"context"
	"time"

	apperrors "github.com/Skryldev/image-compressor/errors"
)

// Format identifies an image codec.
type Format string

const (
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatWebP    Format = "webp"
	FormatGIF     Format = "gif"
	FormatBMP     Format = "bmp"
	FormatTIFF    Format = "tiff"
	FormatUnknown Format = "unknown"
)

// ColorSpace represents the image colour model.
type ColorSpace string

const (
	ColorSpaceRGB  ColorSpace = "rgb"
	ColorSpaceRGBA ColorSpace = "rgba"
	ColorSpaceCMYK ColorSpace = "cmyk"
	ColorSpaceGray ColorSpace = "gray"
)

// OutputFormat is the user's output selection.  OutputPreserve is resolved
// against the source's declared type by ResolveFormat before transcoding and
// never reaches an encoder.
type OutputFormat int

const (
	OutputPreserve OutputFormat = iota
	OutputJPEG
	OutputPNG
	OutputWebP
)

// ResolvedFormat is the concrete codec chosen for an output.  Format is always
// one of FormatJPEG, FormatPNG or FormatWebP.
type ResolvedFormat struct {
	Format    Format
	MIME      string
	Extension string
}

// Dimensions is a width/height pair in pixels.
type Dimensions struct {
	Width  int
	Height int
}

// Metadata holds image information read from the header or the decoded buffer.
type Metadata struct {
	Width      int
	Height     int
	Format     Format
	ColorSpace ColorSpace
	HasAlpha   bool
	SizeBytes  int64
}

// Dimensions returns the width/height pair of m.
func (m Metadata) Dimensions() Dimensions { return Dimensions{Width: m.Width, Height: m.Height} }

// ImageData is the in-memory representation passed through a pipeline.
// Data holds encoded bytes; Image holds the decoded pixel buffer when needed.
type ImageData struct {
	// Encoded bytes: the raw input before encode, the output after.
	Data   []byte
	Format Format

	// Decoded pixel buffer, populated by decode steps.  The stdlib backend
	// stores an image.Image here.
	Image interface{}

	Meta Metadata

	// Size of the original raw input.
	OriginalSize int64
}

// SourceImage is one input file.  Data is never modified by the core.
type SourceImage struct {
	Data        []byte
	ContentType string // declared MIME type; may be empty or wrong
	Name        string // original filename
}

// Size returns the original byte length.
func (s SourceImage) Size() int64 { return int64(len(s.Data)) }

// Params are the per-batch processing parameters.
type Params struct {
	Quality      int // 0-100, clamped by Normalize
	MaxDimension int // 0 means no resizing
	Format       OutputFormat
}

// Normalize clamps Quality to [0,100] and a negative MaxDimension to 0.
func (p Params) Normalize() Params {
	p.Quality = ClampQuality(p.Quality)
	if p.MaxDimension < 0 {
		p.MaxDimension = 0
	}
	return p
}

// ClampQuality clamps q to [0,100].
func ClampQuality(q int) int {
	if q < 0 {
		return 0
	}
	if q > 100 {
		return 100
	}
	return q
}

// Result describes one successfully processed image.  It is never mutated
// after the orchestrator returns it.
//
// Savings is clamped at zero: an output larger than its input reports 0%
// rather than a negative number, so a grown file looks like "no savings".
type Result struct {
	Name           string
	OriginalSize   int64
	CompressedSize int64
	Savings        int
	Format         ResolvedFormat
	OutputName     string
	SourceDims     Dimensions
	OutputDims     Dimensions
	Output         []byte
	Original       []byte
	ProcessingTime time.Duration
}

// Outcome is exactly one of Result or Err for a single input.
type Outcome struct {
	Index  int
	Result *Result
	Err    *apperrors.ProcessingError
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool { return o.Err == nil && o.Result != nil }

// Job encapsulates a single unit of work for the worker pool.
type Job struct {
	ID     string
	Ctx    context.Context //nolint:containedctx // intentional for async jobs
	Source SourceImage
	Params Params
	// Result channel; nil for fire-and-forget.
	ResultCh chan<- JobResult
}

// JobResult wraps the outcome of an async job.
type JobResult struct {
	JobID   string
	Outcome Outcome
}

// Step is the fundamental pipeline building block.  Each Step transforms an
// *ImageData value and must be safe for concurrent use across goroutines.
type Step interface {
	Name() string
	Execute(ctx context.Context, img *ImageData) (*ImageData, error)
}

// Hook is an optional observer invoked around pipeline steps.
type Hook interface {
	BeforeStep(ctx context.Context, stepName string, img *ImageData)
	AfterStep(ctx context.Context, stepName string, img *ImageData, d time.Duration, err error)
}

// StorageKey uniquely identifies a stored image.
type StorageKey struct {
	Bucket string
	Path   string
}
