package pipeline

import (
	"fmt"
	"image"

	"github.com/nfnt/resize"
	xdraw "golang.org/x/image/draw"
)

// Resampler selects the interpolation used when shrinking.  All choices are
// bilinear or better.
type Resampler string

const (
	ResamplerBilinear   Resampler = "bilinear"
	ResamplerCatmullRom Resampler = "catmullrom"
	ResamplerLanczos3   Resampler = "lanczos3"
)

// ParseResampler validates a resampler name.  Empty selects CatmullRom.
func ParseResampler(s string) (Resampler, error) {
	switch r := Resampler(s); r {
	case "":
		return ResamplerCatmullRom, nil
	case ResamplerBilinear, ResamplerCatmullRom, ResamplerLanczos3:
		return r, nil
	}
	return "", fmt.Errorf("unknown resampler %q", s)
}

// scale returns src resampled to w×h.
func (r Resampler) scale(src image.Image, w, h int) image.Image {
	if r == ResamplerLanczos3 {
		return resize.Resize(uint(w), uint(h), src, resize.Lanczos3)
	}
	var interp xdraw.Interpolator = xdraw.CatmullRom
	if r == ResamplerBilinear {
		interp = xdraw.BiLinear
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	interp.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}
