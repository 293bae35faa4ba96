// Package imageio decodes images into pixel buffers and encodes flattened
// buffers back to image files.
//
// Decoding supports PNG, JPEG, GIF, BMP, TIFF and WebP. Encoding supports
// the lossless formats in [ValidEncodeFormats], so flattened alpha survives.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	errs "github.com/matzehuels/blockglyph/pkg/errors"
	"github.com/matzehuels/blockglyph/pkg/transcode"
)

// Encode formats.
const (
	FormatPNG  = "png"
	FormatBMP  = "bmp"
	FormatTIFF = "tiff"
)

// ValidEncodeFormats lists the formats [Encode] accepts.
var ValidEncodeFormats = map[string]bool{
	FormatPNG:  true,
	FormatBMP:  true,
	FormatTIFF: true,
}

// ErrUnsupportedFormat is returned by [Encode] for formats it cannot write.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// MaxPixels bounds decoded image size. Larger images are rejected before
// their pixels are allocated.
const MaxPixels = 64 << 20

// Decode reads an image from r and returns its pixels along with the name
// of the detected format.
func Decode(r io.Reader) (*transcode.Buffer, string, error) {
	var head bytes.Buffer
	cfg, format, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return nil, "", errs.Wrap(errs.ErrCodeInvalidImage, err, "decode image header")
	}
	if cfg.Width*cfg.Height > MaxPixels {
		return nil, format, errs.New(errs.ErrCodeInvalidImage,
			"image too large: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxPixels)
	}

	img, _, err := image.Decode(io.MultiReader(&head, r))
	if err != nil {
		return nil, format, errs.Wrap(errs.ErrCodeInvalidImage, err, "decode %s image", format)
	}
	return transcode.BufferFromImage(img), format, nil
}

// DecodeFile decodes the image at path.
func DecodeFile(path string) (*transcode.Buffer, string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", errs.Wrap(errs.ErrCodeFileNotFound, err, "image %s", path)
		}
		return nil, "", errs.Wrap(errs.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()
	return Decode(f)
}

// Fit downscales buf to at most maxWidth pixels wide, preserving aspect
// ratio. Buffers that already fit, and non-positive maxWidth, are returned
// unchanged.
func Fit(buf *transcode.Buffer, maxWidth int) *transcode.Buffer {
	if maxWidth <= 0 || buf.Width <= maxWidth {
		return buf
	}
	resized := imaging.Resize(buf.ToImage(), maxWidth, 0, imaging.Lanczos)
	return transcode.BufferFromImage(resized)
}

// Encode writes buf to w in the given format.
func Encode(w io.Writer, buf *transcode.Buffer, format string) error {
	if err := buf.Validate(); err != nil {
		return err
	}
	img := buf.ToImage()
	switch NormalizeFormat(format) {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// EncodeBytes is [Encode] into a byte slice.
func EncodeBytes(buf *transcode.Buffer, format string) ([]byte, error) {
	var out bytes.Buffer
	if err := Encode(&out, buf, format); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// NormalizeFormat maps format aliases to their canonical name.
func NormalizeFormat(format string) string {
	switch f := strings.ToLower(strings.TrimPrefix(format, ".")); f {
	case "tif":
		return FormatTIFF
	case "jpg":
		return "jpeg"
	default:
		return f
	}
}

// FormatFromPath infers a format from a file extension.
func FormatFromPath(path string) string {
	return NormalizeFormat(filepath.Ext(path))
}

// ContentType returns the MIME type for an encode format.
func ContentType(format string) string {
	switch NormalizeFormat(format) {
	case FormatPNG:
		return "image/png"
	case FormatBMP:
		return "image/bmp"
	case FormatTIFF:
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}
