// Package pixbuf holds the dense pixel buffers shared by the matching engine
// and its preprocessing stages.
package pixbuf

import (
	"errors"
	"fmt"
)

// ErrInvalidInput reports a buffer that violates the contract of the
// operation it was handed to: missing data, wrong channel count, wrong
// element kind or mismatched geometry.
var ErrInvalidInput = errors.New("invalid input")

// Kind is the element type stored in a Buffer.
type Kind int

const (
	Uint8 Kind = iota
	Float32
)

func (k Kind) String() string {
	switch k {
	case Uint8:
		return "uint8"
	case Float32:
		return "float32"
	default:
		return "unknown"
	}
}

// Buffer is a dense row-major grid of samples. Exactly one of Pix or Float
// carries data, selected by Kind. Every row holds Width*Channels elements and
// rows are stored back to back.
type Buffer struct {
	Width    int
	Height   int
	Channels int
	Kind     Kind
	Pix      []uint8
	Float    []float32
}

// New allocates a zeroed buffer. Channels must be 1 or 3.
func New(width, height, channels int, kind Kind) (*Buffer, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("negative geometry %dx%d: %w", width, height, ErrInvalidInput)
	}
	if channels != 1 && channels != 3 {
		return nil, fmt.Errorf("unsupported channel count %d: %w", channels, ErrInvalidInput)
	}

	b := &Buffer{Width: width, Height: height, Channels: channels, Kind: kind}
	n := width * height * channels
	switch kind {
	case Uint8:
		b.Pix = make([]uint8, n)
	case Float32:
		b.Float = make([]float32, n)
	default:
		return nil, fmt.Errorf("unsupported element kind %d: %w", kind, ErrInvalidInput)
	}
	return b, nil
}

// NewGray allocates a zeroed single-channel 8-bit buffer.
func NewGray(width, height int) *Buffer {
	return mustNew(width, height, 1, Uint8)
}

// NewBGR allocates a zeroed three-channel 8-bit buffer.
func NewBGR(width, height int) *Buffer {
	return mustNew(width, height, 3, Uint8)
}

// NewFloat allocates a zeroed single-channel float32 buffer.
func NewFloat(width, height int) *Buffer {
	return mustNew(width, height, 1, Float32)
}

func mustNew(width, height, channels int, kind Kind) *Buffer {
	b, err := New(width, height, channels, kind)
	if err != nil {
		panic(err)
	}
	return b
}

// FromPix wraps an existing 8-bit sample slice. The slice is not copied; the
// caller hands ownership to the returned buffer.
func FromPix(width, height, channels int, pix []uint8) (*Buffer, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("negative geometry %dx%d: %w", width, height, ErrInvalidInput)
	}
	if channels != 1 && channels != 3 {
		return nil, fmt.Errorf("unsupported channel count %d: %w", channels, ErrInvalidInput)
	}
	if len(pix) != width*height*channels {
		return nil, fmt.Errorf("pixel slice has %d elements, want %d: %w",
			len(pix), width*height*channels, ErrInvalidInput)
	}
	return &Buffer{Width: width, Height: height, Channels: channels, Kind: Uint8, Pix: pix}, nil
}

// FromFloat wraps an existing single-channel float32 slice.
func FromFloat(width, height int, data []float32) (*Buffer, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("negative geometry %dx%d: %w", width, height, ErrInvalidInput)
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("float slice has %d elements, want %d: %w",
			len(data), width*height, ErrInvalidInput)
	}
	return &Buffer{Width: width, Height: height, Channels: 1, Kind: Float32, Float: data}, nil
}

// Stride is the number of elements in one row.
func (b *Buffer) Stride() int {
	return b.Width * b.Channels
}

// Len is the number of elements in the backing slice selected by Kind.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	if b.Kind == Float32 {
		return len(b.Float)
	}
	return len(b.Pix)
}

// Empty reports whether the buffer carries no sample data.
func (b *Buffer) Empty() bool {
	return b.Len() == 0
}

// Row returns row y of an 8-bit buffer.
func (b *Buffer) Row(y int) []uint8 {
	s := b.Stride()
	return b.Pix[y*s : (y+1)*s : (y+1)*s]
}

// FloatRow returns row y of a float32 buffer.
func (b *Buffer) FloatRow(y int) []float32 {
	s := b.Stride()
	return b.Float[y*s : (y+1)*s : (y+1)*s]
}

// Check verifies that b is non-empty, consistent, and has the given channel
// count and element kind. The returned error wraps ErrInvalidInput.
func (b *Buffer) Check(channels int, kind Kind) error {
	if b == nil || b.Empty() {
		return fmt.Errorf("buffer has no data: %w", ErrInvalidInput)
	}
	if b.Channels != channels {
		return fmt.Errorf("buffer has %d channels, want %d: %w", b.Channels, channels, ErrInvalidInput)
	}
	if b.Kind != kind {
		return fmt.Errorf("buffer holds %s elements, want %s: %w", b.Kind, kind, ErrInvalidInput)
	}
	if b.Width <= 0 || b.Height <= 0 || b.Len() != b.Width*b.Height*b.Channels {
		return fmt.Errorf("buffer geometry %dx%dx%d does not match %d elements: %w",
			b.Width, b.Height, b.Channels, b.Len(), ErrInvalidInput)
	}
	return nil
}

// SameGeometry reports whether a and b have identical width and height.
func SameGeometry(a, b *Buffer) bool {
	return a.Width == b.Width && a.Height == b.Height
}

// Clone returns a deep copy of b.
func (b *Buffer) Clone() *Buffer {
	c := *b
	if b.Pix != nil {
		c.Pix = append([]uint8(nil), b.Pix...)
	}
	if b.Float != nil {
		c.Float = append([]float32(nil), b.Float...)
	}
	return &c
}

// Fill sets every 8-bit sample to v.
func (b *Buffer) Fill(v uint8) {
	for i := range b.Pix {
		b.Pix[i] = v
	}
}

// GradientPair is the horizontal and vertical derivative of a gray buffer.
type GradientPair struct {
	DX *Buffer
	DY *Buffer
}

// OrientationField holds per-pixel gradient angle in degrees [0,360) and
// gradient magnitude.
type OrientationField struct {
	Angle     *Buffer
	Magnitude *Buffer
}

// Histogram is a fixed-length array of intensity counts.
type Histogram []int

// Sum returns the total number of counted samples.
func (h Histogram) Sum() int {
	var s int
	for _, c := range h {
		s += c
	}
	return s
}
