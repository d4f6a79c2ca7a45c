package extraction

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"net/http"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// passthroughTypes are sent to providers unchanged once they decode
var passthroughTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
}

// prepareImage normalises an uploaded recipe photo or scan into something every provider accepts.
// PNG, JPEG and GIF are passed through; HEIC/HEIF and the first page of a PDF are rendered to PNG.
func prepareImage(data []byte, contentType string) ([]byte, string, error) {
	if len(data) == 0 {
		return nil, "", inputError("image is empty", nil)
	}

	mimeType := normalizeMimeType(contentType)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = sniffMimeType(data)
	}

	switch {
	case mimeType == "application/pdf":
		out, err := pdfToPNG(data)
		if err != nil {
			return nil, "", inputError("converting PDF", err)
		}
		return out, "image/png", nil
	case isHEICFormat(data) || isHEICMimeType(mimeType):
		out, err := heicToPNG(data)
		if err != nil {
			return nil, "", inputError("converting HEIC", err)
		}
		return out, "image/png", nil
	case passthroughTypes[mimeType]:
		if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
			return nil, "", inputError(fmt.Sprintf("decoding %s", mimeType), err)
		}
		return data, mimeType, nil
	default:
		return nil, "", inputError(fmt.Sprintf("unsupported image format %q. Supported formats: JPEG, PNG, GIF, HEIC, HEIF, PDF", mimeType), nil)
	}
}

// normalizeMimeType lowercases and strips parameters ("image/JPEG; q=1" -> "image/jpeg")
func normalizeMimeType(contentType string) string {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mimeType, ";"); i != -1 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "image/jpg" {
		mimeType = "image/jpeg"
	}
	return mimeType
}

func sniffMimeType(data []byte) string {
	if isHEICFormat(data) {
		return "image/heic"
	}
	return normalizeMimeType(http.DetectContentType(data))
}

// pdfToPNG renders the first page of a PDF; recipe scans are almost always one page
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

func heicToPNG(data []byte) ([]byte, error) {
	img, err := heic.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
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

// isHEICFormat checks for an ftyp box with a HEIC-family brand at offset 4
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func isHEICMimeType(mimeType string) bool {
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}
