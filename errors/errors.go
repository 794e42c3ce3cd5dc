package errors

import (
	"errors"
	"fmt"
)

// Category classifies error types for targeted handling and monitoring.
type Category string

const (
	CategoryNotAnImage Category = "not_an_image"
	CategoryDecode     Category = "decode"
	CategoryEncode     Category = "encode"
	CategoryCanceled   Category = "canceled"
	CategoryPipeline   Category = "pipeline"
	CategoryStorage    Category = "storage"
	CategoryConfig     Category = "config"
	CategoryInput      Category = "input"
)

// ProcessingError is the structured error type used throughout the module.
// Per-file failures carry the offending filename so a batch outcome can be
// reported without the caller re-associating errors with inputs.
type ProcessingError struct {
	Category Category
	Op       string // operation name
	Filename string // empty when the failure is not tied to a file
	Err      error
}

func (e *ProcessingError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Category, e.Op, e.Filename, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Category, e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// Message returns the human-readable cause without category or op prefixes.
func (e *ProcessingError) Message() string {
	if e.Err == nil {
		return string(e.Category)
	}
	return e.Err.Error()
}

// New creates a ProcessingError.
func New(category Category, op string, err error) *ProcessingError {
	return &ProcessingError{Category: category, Op: op, Err: err}
}

// Wrap wraps an existing error with context.  An error that is already a
// ProcessingError keeps its original category.
func Wrap(category Category, op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return err
	}
	return New(category, op, err)
}

// WithFile attaches filename to err, converting it to a ProcessingError in the
// given fallback category when it is not one already.
func WithFile(err error, fallback Category, filename string) *ProcessingError {
	if err == nil {
		return nil
	}
	var pe *ProcessingError
	if errors.As(err, &pe) {
		cp := *pe
		cp.Filename = filename
		return &cp
	}
	return &ProcessingError{Category: fallback, Op: "process", Filename: filename, Err: err}
}

// IsCategory reports whether err belongs to the given category.
func IsCategory(err error, cat Category) bool {
	return CategoryOf(err) == cat
}

// CategoryOf returns the category of err, or "" when err is not a ProcessingError.
func CategoryOf(err error) Category {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ""
}

// Sentinel errors for common failure modes.
var (
	ErrNotAnImage        = errors.New("this file is not an image")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrInvalidDimensions = errors.New("invalid dimensions")
	ErrEmptyInput        = errors.New("empty input")
	ErrEmptyOutput       = errors.New("encoder produced no output")
	ErrWorkerPoolFull    = errors.New("worker pool queue full")
	ErrStopped           = errors.New("processor stopped")
)
