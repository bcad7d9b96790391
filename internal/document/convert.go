package document

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// convertForTransport rasterizes document formats the vision transport cannot
// consume directly. PDFs are rendered to PNG (first page; bills are almost
// always single page) and HEIC/HEIF images are decoded and re-encoded as PNG.
// JPEG, PNG and WebP pass through untouched.
func convertForTransport(data []byte, mediaType string) ([]byte, string, error) {
	switch {
	case mediaType == "application/pdf":
		pngData, err := pdfToPNG(data)
		if err != nil {
			return nil, "", fmt.Errorf("converting PDF: %w", err)
		}
		return pngData, "image/png", nil
	case isHEICMediaType(mediaType) || isHEICData(data):
		pngData, err := heicToPNG(data)
		if err != nil {
			return nil, "", fmt.Errorf("converting HEIC image: %w", err)
		}
		return pngData, "image/png", nil
	}
	return data, mediaType, nil
}

// pdfToPNG renders the first page of a PDF as a PNG image.
func pdfToPNG(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}

	return encodePNG(img)
}

// heicToPNG decodes a HEIC/HEIF image and re-encodes it as PNG.
func heicToPNG(data []byte) ([]byte, error) {
	img, err := heic.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding HEIC image: %w", err)
	}
	return encodePNG(img)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// isHEICData checks the ftyp box for HEIC-family brands. Browsers commonly
// report HEIC uploads as image/jpeg, so the declared type alone is not enough.
func isHEICData(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) != "ftyp" {
		return false
	}
	brand := string(data[8:12])
	return brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1"
}

func isHEICMediaType(mediaType string) bool {
	return strings.Contains(mediaType, "heic") || strings.Contains(mediaType, "heif")
}
