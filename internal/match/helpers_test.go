package match

import (
	"math/rand"
	"testing"

	"github.com/cwbudde/subimgmatch/internal/pixbuf"
	"github.com/stretchr/testify/require"
)

func randomBuffer(t testing.TB, width, height, channels int, seed int64) *pixbuf.Buffer {
	t.Helper()
	b, err := pixbuf.New(width, height, channels, pixbuf.Uint8)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(seed))
	for i := range b.Pix {
		b.Pix[i] = uint8(rng.Intn(256))
	}
	return b
}

// crop copies the w x h window at (x, y) out of b.
func crop(t testing.TB, b *pixbuf.Buffer, x, y, w, h int) *pixbuf.Buffer {
	t.Helper()
	out, err := pixbuf.New(w, h, b.Channels, pixbuf.Uint8)
	require.NoError(t, err)
	ch := b.Channels
	for row := 0; row < h; row++ {
		copy(out.Row(row), b.Row(y + row)[x*ch:(x+w)*ch])
	}
	return out
}

func grayFrom(t testing.TB, width, height int, pix ...uint8) *pixbuf.Buffer {
	t.Helper()
	b, err := pixbuf.FromPix(width, height, 1, pix)
	require.NoError(t, err)
	return b
}
