package utils

import (
	"math"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	formatJPEG    = "jpeg"
	formatPNG     = "png"
	formatWebP    = "webp"
	formatGIF     = "gif"
	formatBMP     = "bmp"
	formatTIFF    = "tiff"
	formatUnknown = "unknown"
)

// DetectContentType sniffs data and returns its MIME type without parameters.
func DetectContentType(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	ct := mimetype.Detect(data).String()
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return ct
}

// DetectFormat sniffs data and returns the image format name.
func DetectFormat(data []byte) string {
	switch DetectContentType(data) {
	case "image/jpeg":
		return formatJPEG
	case "image/png", "image/vnd.mozilla.apng":
		return formatPNG
	case "image/webp":
		return formatWebP
	case "image/gif":
		return formatGIF
	case "image/bmp":
		return formatBMP
	case "image/tiff":
		return formatTIFF
	}
	return formatUnknown
}

// ScaleToFit returns the dimensions of a w×h image shrunk so that its longer
// side is at most maxSize, preserving aspect ratio.  maxSize <= 0 and images
// that already fit are returned unchanged; images are never enlarged.
//
// Each side is rounded independently, so the output ratio may drift from the
// source ratio by up to one pixel.  A non-zero side never shrinks below one
// pixel; only zero-dimension input yields zero.
func ScaleToFit(w, h, maxSize int) (int, int) {
	if maxSize <= 0 {
		return w, h
	}
	longer := max(w, h)
	if longer <= maxSize {
		return w, h
	}
	factor := float64(maxSize) / float64(longer)
	return scaleSide(w, factor), scaleSide(h, factor)
}

func scaleSide(n int, factor float64) int {
	if n <= 0 {
		return n
	}
	return max(1, int(math.Round(float64(n)*factor)))
}

// SavingsPercent returns the size reduction from original to compressed as a
// rounded percentage in [0,100].  Outputs larger than their input report 0,
// not a negative value, which hides cases where re-encoding grew the file.
func SavingsPercent(original, compressed int64) int {
	if original <= 0 {
		return 0
	}
	pct := math.Round(float64(original-compressed) / float64(original) * 100)
	if pct < 0 {
		return 0
	}
	return int(pct)
}

// OutputName derives "<base>-compressed.<ext>" from the original filename.
// Only a dot after the first character starts an extension, so ".hidden"
// keeps its full name as the base.
func OutputName(original, ext string) string {
	base := original
	if i := strings.LastIndex(original, "."); i > 0 {
		base = original[:i]
	}
	return base + "-compressed." + ext
}

var byteUnits = []string{"B", "KB", "MB", "GB"}

// HumanBytes formats n with 1024-based units, two decimals up to 100 and none
// above ("0 B", "1.50 KB", "512 B", "1000 B").
func HumanBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	i := int(math.Floor(math.Log(float64(n)) / math.Log(1024)))
	if i >= len(byteUnits) {
		i = len(byteUnits) - 1
	}
	value := float64(n) / math.Pow(1024, float64(i))
	prec := 2
	if value > 100 {
		prec = 0
	}
	return strconv.FormatFloat(value, 'f', prec, 64) + " " + byteUnits[i]
}

// CloneBytes returns a copy of b (safe for use after the source buffer is released).
func CloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
