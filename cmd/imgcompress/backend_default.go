//go:build !vips

package main

import (
	imageprocessor "github.com/Skryldev/image-compressor"
	"github.com/Skryldev/image-compressor/config"
)

// newProcessor returns a processor on the pure-Go codecs.
func newProcessor(cfg config.Config) (*imageprocessor.Processor, func()) {
	return imageprocessor.New(cfg), func() {}
}
