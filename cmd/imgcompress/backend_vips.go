//go:build vips

package main

import (
	imageprocessor "github.com/Skryldev/image-compressor"
	"github.com/Skryldev/image-compressor/adapters/vips"
	"github.com/Skryldev/image-compressor/config"
)

// newProcessor returns a processor that transcodes with libvips.
func newProcessor(cfg config.Config) (*imageprocessor.Processor, func()) {
	backend := vips.NewBackend(vips.BackendConfig{MaxWorkers: cfg.WorkerCount})
	return imageprocessor.NewWithTranscoder(cfg, backend), backend.Shutdown
}
