package core

import (
	"fmt"
	"strings"
)

// ParseOutputFormat maps a user selection ("original", "jpeg", "png", "webp")
// to an OutputFormat.  An empty string selects OutputPreserve.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "original", "preserve":
		return OutputPreserve, nil
	case "jpeg", "jpg", "image/jpeg":
		return OutputJPEG, nil
	case "png", "image/png":
		return OutputPNG, nil
	case "webp", "image/webp":
		return OutputWebP, nil
	}
	return OutputPreserve, fmt.Errorf("unknown output format %q", s)
}

func (f OutputFormat) String() string {
	switch f {
	case OutputJPEG:
		return "jpeg"
	case OutputPNG:
		return "png"
	case OutputWebP:
		return "webp"
	}
	return "original"
}

// ResolveFormat picks the concrete output codec.  An explicit request wins
// over the declared type; OutputPreserve keeps the declared type when it is an
// encodable image type and falls back to JPEG otherwise.
func ResolveFormat(requested OutputFormat, declaredType string) ResolvedFormat {
	switch requested {
	case OutputJPEG:
		return Resolved(FormatJPEG)
	case OutputPNG:
		return Resolved(FormatPNG)
	case OutputWebP:
		return Resolved(FormatWebP)
	}
	if IsImageType(declaredType) {
		switch f := FormatFromMIME(declaredType); f {
		case FormatJPEG, FormatPNG, FormatWebP:
			return Resolved(f)
		}
	}
	return Resolved(FormatJPEG)
}

// Resolved builds the ResolvedFormat for f.  Formats that are not output
// codecs resolve to JPEG.
func Resolved(f Format) ResolvedFormat {
	switch f {
	case FormatPNG:
		return ResolvedFormat{Format: FormatPNG, MIME: "image/png", Extension: ExtensionFor(f)}
	case FormatWebP:
		return ResolvedFormat{Format: FormatWebP, MIME: "image/webp", Extension: ExtensionFor(f)}
	}
	return ResolvedFormat{Format: FormatJPEG, MIME: "image/jpeg", Extension: ExtensionFor(FormatJPEG)}
}

// ExtensionFor returns the output file extension for f, "jpg" for anything
// unrecognised.
func ExtensionFor(f Format) string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatWebP:
		return "webp"
	}
	return "jpg"
}

// IsImageType reports whether a declared MIME type names an image.
func IsImageType(contentType string) bool {
	return strings.HasPrefix(mediaType(contentType), "image/")
}

// FormatFromMIME maps MIME types to Format values.
func FormatFromMIME(ct string) Format {
	switch mediaType(ct) {
	case "image/jpeg", "image/jpg", "image/pjpeg":
		return FormatJPEG
	case "image/png", "image/x-png":
		return FormatPNG
	case "image/webp":
		return FormatWebP
	case "image/gif":
		return FormatGIF
	case "image/bmp", "image/x-bmp", "image/x-ms-bmp":
		return FormatBMP
	case "image/tiff":
		return FormatTIFF
	}
	return FormatUnknown
}

// mediaType lowercases ct and strips parameters ("image/png; q=1").
func mediaType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
