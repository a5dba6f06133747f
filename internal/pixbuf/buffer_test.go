package pixbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		w, h, ch int
		kind     Kind
		wantLen  int
		wantErr  bool
	}{
		{"gray", 4, 3, 1, Uint8, 12, false},
		{"bgr", 4, 3, 3, Uint8, 36, false},
		{"float", 5, 2, 1, Float32, 10, false},
		{"empty", 0, 0, 1, Uint8, 0, false},
		{"two channels", 4, 3, 2, Uint8, 0, true},
		{"negative", -1, 3, 1, Uint8, 0, true},
		{"bad kind", 4, 3, 1, Kind(7), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(tt.w, tt.h, tt.ch, tt.kind)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, b.Len())
			assert.Equal(t, tt.w*tt.ch, b.Stride())
		})
	}
}

func TestRowAccess(t *testing.T) {
	b, err := FromPix(3, 2, 3, []uint8{
		1, 2, 3, 4, 5, 6, 7, 8, 9,
		10, 11, 12, 13, 14, 15, 16, 17, 18,
	})
	require.NoError(t, err)

	assert.Equal(t, []uint8{10, 11, 12, 13, 14, 15, 16, 17, 18}, b.Row(1))
	assert.Len(t, b.Row(0), 9)
	assert.Equal(t, 9, cap(b.Row(0)), "rows must not reach into the next row")

	f, err := FromFloat(2, 2, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4}, f.FloatRow(1))
}

func TestFromPix_LengthMismatch(t *testing.T) {
	_, err := FromPix(3, 2, 1, make([]uint8, 5))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = FromFloat(3, 2, make([]float32, 7))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCheck(t *testing.T) {
	var nilBuf *Buffer
	assert.ErrorIs(t, nilBuf.Check(1, Uint8), ErrInvalidInput)
	assert.ErrorIs(t, NewGray(0, 5).Check(1, Uint8), ErrInvalidInput)
	assert.ErrorIs(t, NewGray(2, 2).Check(3, Uint8), ErrInvalidInput)
	assert.ErrorIs(t, NewGray(2, 2).Check(1, Float32), ErrInvalidInput)
	assert.NoError(t, NewBGR(2, 2).Check(3, Uint8))
	assert.NoError(t, NewFloat(2, 2).Check(1, Float32))

	broken := &Buffer{Width: 3, Height: 3, Channels: 1, Pix: make([]uint8, 4)}
	assert.ErrorIs(t, broken.Check(1, Uint8), ErrInvalidInput)
}

func TestClone_IsDeep(t *testing.T) {
	b := NewGray(2, 2)
	b.Fill(7)
	c := b.Clone()
	c.Pix[0] = 1
	assert.Equal(t, uint8(7), b.Pix[0])
	assert.True(t, SameGeometry(b, c))
}

func TestHistogramSum(t *testing.T) {
	assert.Equal(t, 0, Histogram(nil).Sum())
	assert.Equal(t, 6, Histogram{1, 2, 3}.Sum())
}
