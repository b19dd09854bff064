// Package media decodes browser data URIs, sniffs their real content type
// and normalizes profile pictures before they are uploaded.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// JPEGQuality is used when re-encoding normalized pictures.
const JPEGQuality = 85

// ErrNotDataURI is returned for strings that are not data: URIs.
var ErrNotDataURI = errors.New("not a data URI")

// Blob is decoded binary content.
type Blob struct {
	// Declared is the media type the data URI claimed.
	Declared string
	// Detected is the media type sniffed from the bytes.
	Detected string
	Data     []byte
}

// IsImage reports whether the sniffed content is an image.
func (b Blob) IsImage() bool {
	return strings.HasPrefix(b.Detected, "image/")
}

// IsPDF reports whether the sniffed content is a PDF.
func (b Blob) IsPDF() bool {
	return b.Detected == "application/pdf"
}

// ParseDataURI decodes "data:[<mediatype>][;base64],<data>".
func ParseDataURI(s string) (Blob, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return Blob{}, ErrNotDataURI
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Blob{}, fmt.Errorf("malformed data URI: %w", ErrNotDataURI)
	}

	declared, isBase64 := strings.CutSuffix(header, ";base64")
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = declared[:i]
	}

	var data []byte
	var err error
	if isBase64 {
		data, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(payload)
		}
	} else {
		var unescaped string
		unescaped, err = url.PathUnescape(payload)
		data = []byte(unescaped)
	}
	if err != nil {
		return Blob{}, fmt.Errorf("decoding data URI payload: %w", err)
	}

	return Blob{
		Declared: declared,
		Detected: mimetype.Detect(data).String(),
		Data:     data,
	}, nil
}

// CheckDocument accepts a data URI whose content is an image or a PDF and
// returns the sniffed media type.
func CheckDocument(uri string) (string, error) {
	b, err := ParseDataURI(uri)
	if err != nil {
		return "", err
	}
	if !b.IsImage() && !b.IsPDF() {
		return "", fmt.Errorf("unsupported document type %s", b.Detected)
	}
	return b.Detected, nil
}

// NormalizeProfilePicture scales an image so its long edge is at most maxDim
// and re-encodes it as JPEG. Images already small enough are still re-encoded
// so the upload is always a JPEG.
func NormalizeProfilePicture(data []byte, maxDim int) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image (format: %s): %w", format, err)
	}

	bounds := img.Bounds()
	width, height := fitWithin(bounds.Dx(), bounds.Dy(), maxDim)

	resized := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// fitWithin keeps the aspect ratio while bounding the long edge.
func fitWithin(width, height, maxDim int) (int, int) {
	if maxDim <= 0 || (width <= maxDim && height <= maxDim) {
		return width, height
	}
	if width > height {
		return maxDim, max(1, int(float64(height)*float64(maxDim)/float64(width)))
	}
	return max(1, int(float64(width)*float64(maxDim)/float64(height))), maxDim
}
