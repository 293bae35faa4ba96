package transcode

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"image"

	"golang.org/x/image/draw"

	errs "github.com/matzehuels/blockglyph/pkg/errors"
)

// Buffer is a row-major RGBA pixel grid with no row padding.
// Pix holds Width*Height*4 bytes: R, G, B, A for each pixel in turn.
type Buffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewBuffer allocates a zeroed (transparent black) buffer.
func NewBuffer(width, height int) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Buffer{Width: width, Height: height, Pix: make([]uint8, width*height*4)}
}

// Validate reports an INVALID_ARGUMENT error when the buffer's length does
// not match its dimensions.
func (b *Buffer) Validate() error {
	if b == nil {
		return errs.New(errs.ErrCodeInvalidArgument, "nil pixel buffer")
	}
	return errs.ValidateBufferLength(b.Width, b.Height, len(b.Pix))
}

// At returns the RGBA components of the pixel at (x, y).
func (b *Buffer) At(x, y int) (r, g, bl, a uint8) {
	i := (y*b.Width + x) * 4
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3]
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{Width: b.Width, Height: b.Height, Pix: pix}
}

// Hash returns a hex SHA-256 digest over the dimensions and pixel data.
// Equal buffers always hash equally, which makes it usable as a cache key.
func (b *Buffer) Hash() string {
	h := sha256.New()
	var dims [16]byte
	binary.BigEndian.PutUint64(dims[:8], uint64(b.Width))
	binary.BigEndian.PutUint64(dims[8:], uint64(b.Height))
	h.Write(dims[:])
	h.Write(b.Pix)
	return hex.EncodeToString(h.Sum(nil))
}

// ToImage wraps a copy of the pixels as a non-premultiplied image.
func (b *Buffer) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	copy(img.Pix, b.Pix)
	return img
}

// BufferFromImage converts any image to a Buffer anchored at (0, 0).
// Colors are converted to non-premultiplied RGBA.
func BufferFromImage(img image.Image) *Buffer {
	if img == nil {
		return NewBuffer(0, 0)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if n, ok := img.(*image.NRGBA); ok && n.Stride == w*4 && len(n.Pix) >= w*h*4 {
		buf := NewBuffer(w, h)
		copy(buf.Pix, n.Pix[:w*h*4])
		return buf
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return &Buffer{Width: w, Height: h, Pix: dst.Pix}
}
