package document

import (
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrFileRead indicates the selected document could not be read or decoded.
// It is not retryable without selecting a new file.
var ErrFileRead = errors.New("could not read document")

// Payload is the text-safe encoding of one uploaded document. It is owned by
// the in-flight submission and discarded once the extraction request completes.
type Payload struct {
	Data      string // base64-encoded document bytes
	MediaType string
	Filename  string
}

// acceptedMediaTypes is the set an encoded payload may carry. PDFs and
// HEIC/HEIF images are rasterized to PNG before encoding, so the payload
// media type after conversion is always image/png for those inputs.
var acceptedMediaTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"image/heic":      true,
	"image/heif":      true,
	"application/pdf": true,
}

// Encoder converts user-supplied documents into transmittable payloads.
type Encoder struct{}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode normalizes the declared media type, converts PDFs and HEIC images to
// PNG, and base64-encodes the result. An empty or undecodable file fails with
// ErrFileRead.
func (e *Encoder) Encode(filename string, data []byte, declaredType string) (*Payload, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrFileRead)
	}

	mediaType := NormalizeMediaType(declaredType)

	finalData, finalType, err := convertForTransport(data, mediaType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileRead, err)
	}

	return &Payload{
		Data:      base64.StdEncoding.EncodeToString(finalData),
		MediaType: finalType,
		Filename:  filename,
	}, nil
}

// NormalizeMediaType maps a declared media type onto the accepted set.
// Unrecognized types are coerced to image/jpeg rather than rejected, matching
// how browsers frequently misreport phone camera uploads.
func NormalizeMediaType(declared string) string {
	t := strings.ToLower(strings.TrimSpace(declared))
	switch {
	case strings.Contains(t, "pdf"):
		return "application/pdf"
	case strings.Contains(t, "png"):
		return "image/png"
	case strings.Contains(t, "webp"):
		return "image/webp"
	case strings.Contains(t, "heic"):
		return "image/heic"
	case strings.Contains(t, "heif"):
		return "image/heif"
	default:
		return "image/jpeg"
	}
}

// DetectMediaType returns the media type of raw document bytes, preferring
// content sniffing over the declared type. Browsers misreport upload types
// often enough that the declared type is only a fallback.
func DetectMediaType(data []byte, declaredType string) string {
	switch {
	case len(data) >= 5 && string(data[:5]) == "%PDF-":
		return "application/pdf"
	case isHEICData(data):
		return "image/heic"
	case len(data) >= 8 && string(data[:8]) == "\x89PNG\r\n\x1a\n":
		return "image/png"
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "image/jpeg"
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "image/webp"
	}
	return NormalizeMediaType(declaredType)
}

// SanitizeFilename cleans up a filename by removing special characters and
// truncating length. Phone uploads often carry very long generated names.
func SanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	reg := regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	base = reg.ReplaceAllString(base, "")

	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")

	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	if base == "" {
		base = "document"
	}

	return base + ext
}
