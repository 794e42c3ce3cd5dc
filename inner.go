package imageprocessor

import (
	"github.com/Skryldev/image-compressor/core"
	"github.com/Skryldev/image-compressor/pipeline"
)

// Inner exposes the underlying core.Processor for advanced use (e.g., direct
// worker pool access in tests).  Prefer the high-level API for normal usage.
func (p *Processor) Inner() *core.Processor { return p.inner }

// Registry returns the codec registry, or nil for a custom transcoder.
func (p *Processor) Registry() *core.DefaultRegistry { return p.reg }

// Pipeline returns the built-in transcoder, or nil for a custom transcoder.
func (p *Processor) Pipeline() *pipeline.Transcoder { return p.transcoder }
