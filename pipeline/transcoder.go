package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/Skryldev/image-compressor/core"
	apperrors "github.com/Skryldev/image-compressor/errors"
	"github.com/Skryldev/image-compressor/utils"
)

// Transcoder implements core.Transcoder with registry codecs and a
// decode → resize → format → encode pipeline per call.  Pixel buffers live
// only for the duration of one Transcode call.
type Transcoder struct {
	registry  core.Registry
	resampler Resampler
	hooks     []core.Hook
}

// NewTranscoder returns a Transcoder backed by reg.
func NewTranscoder(reg core.Registry, r Resampler) *Transcoder {
	if r == "" {
		r = ResamplerCatmullRom
	}
	return &Transcoder{registry: reg, resampler: r}
}

// AddHook registers an observer for every pipeline step.  Not safe to call
// concurrently with Transcode.
func (t *Transcoder) AddHook(h core.Hook) { t.hooks = append(t.hooks, h) }

// Probe sniffs the source format and reads its header.
func (t *Transcoder) Probe(ctx context.Context, data []byte) (core.Metadata, error) {
	dec, format, err := t.decoderFor(data, "probe")
	if err != nil {
		return core.Metadata{}, err
	}
	meta, err := dec.DecodeConfig(ctx, bytes.NewReader(data))
	if err != nil {
		return core.Metadata{}, apperrors.Wrap(apperrors.CategoryDecode, "probe", err)
	}
	meta.Format = format
	meta.SizeBytes = int64(len(data))
	return meta, nil
}

// Transcode decodes data, resamples it to dims and encodes it as format at
// quality (0-100, clamped).
func (t *Transcoder) Transcode(ctx context.Context, data []byte, dims core.Dimensions, format core.ResolvedFormat, quality int) ([]byte, error) {
	if _, _, err := t.decoderFor(data, "transcode"); err != nil {
		return nil, err
	}
	img := &core.ImageData{
		Data:         data,
		Format:       core.Format(utils.DetectFormat(data)),
		OriginalSize: int64(len(data)),
	}

	pl := New().AddHook(t.hooks...).Use(
		&DecodeStep{Registry: t.registry},
		&ResizeStep{Width: dims.Width, Height: dims.Height, Resampler: t.resampler},
		&FormatStep{Format: format.Format},
		&EncodeStep{Registry: t.registry, Options: core.EncodeOptions{Quality: core.ClampQuality(quality)}},
	)
	out, _, err := pl.Run(ctx, img)
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (t *Transcoder) decoderFor(data []byte, op string) (core.Decoder, core.Format, error) {
	if len(data) == 0 {
		return nil, core.FormatUnknown, apperrors.New(apperrors.CategoryDecode, op, apperrors.ErrEmptyInput)
	}
	format := core.Format(utils.DetectFormat(data))
	dec, ok := t.registry.DecoderFor(format)
	if !ok {
		return nil, format, apperrors.New(apperrors.CategoryDecode, op,
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, format))
	}
	return dec, format, nil
}

var _ core.Transcoder = (*Transcoder)(nil)
