package imageio

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/cwbudde/subimgmatch/internal/pixbuf"
)

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.SetNRGBA(2, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	return img
}

func TestToBGR_ChannelOrder(t *testing.T) {
	buf := ToBGR(testImage())
	require.Equal(t, 3, buf.Width)
	require.Equal(t, 2, buf.Height)
	require.Equal(t, 3, buf.Channels)

	assert.Equal(t, []uint8{30, 20, 10}, buf.Row(0)[0:3])
	assert.Equal(t, []uint8{255, 255, 255}, buf.Row(1)[6:9])
}

func TestToBGR_OffsetBounds(t *testing.T) {
	img := testImage().SubImage(image.Rect(1, 1, 3, 2))
	buf := ToBGR(img)
	assert.Equal(t, 2, buf.Width)
	assert.Equal(t, 1, buf.Height)
	assert.Equal(t, []uint8{255, 255, 255}, buf.Row(0)[3:6])
}

func TestToGray(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 2, 2))
	g.Pix = []uint8{1, 2, 3, 4}
	buf, err := ToGray(g)
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 2, 3, 4}, buf.Pix)

	buf, err = ToGray(testImage())
	require.NoError(t, err)
	assert.Equal(t, uint8(255), buf.Row(1)[2])
	assert.Equal(t, uint8(0), buf.Row(1)[0])
}

func TestPNGRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.png")
	img, err := Image(ToBGR(testImage()))
	require.NoError(t, err)
	require.NoError(t, SavePNG(path, img))

	buf, err := LoadBGR(path)
	require.NoError(t, err)
	assert.Equal(t, ToBGR(testImage()).Pix, buf.Pix)
}

func TestSavePNG_ReplacesWithoutTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overlay.png")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))

	img, err := Image(ToBGR(testImage()))
	require.NoError(t, err)
	require.NoError(t, SavePNG(path, img))

	buf, err := LoadBGR(path)
	require.NoError(t, err)
	assert.Equal(t, 3, buf.Width)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "overlay.png", entries[0].Name())
}

func TestSavePNG_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "overlay.png")
	assert.Error(t, SavePNG(path, testImage()))
}

func TestDecodeBMP(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, bmp.Encode(&b, testImage()))

	img, err := Decode(&b)
	require.NoError(t, err)
	assert.Equal(t, []uint8{30, 20, 10}, ToBGR(img).Row(0)[0:3])
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestFieldImage(t *testing.T) {
	f, err := pixbuf.FromFloat(3, 1, []float32{0, -50, 100})
	require.NoError(t, err)

	g := FieldImage(f, 0)
	assert.Equal(t, []uint8{0, 127, 255}, g.Pix)

	g = FieldImage(f, 50)
	assert.Equal(t, []uint8{0, 255, 255}, g.Pix)

	g = FieldImage(pixbuf.NewFloat(2, 2), 0)
	assert.Equal(t, []uint8{0, 0, 0, 0}, g.Pix)
}

func TestOverlay(t *testing.T) {
	ref := pixbuf.NewGray(6, 5)
	red := color.NRGBA{R: 255, A: 255}

	out, err := Overlay(ref, 1, 1, 3, 3, red)
	require.NoError(t, err)

	assert.Equal(t, red, out.NRGBAAt(1, 1))
	assert.Equal(t, red, out.NRGBAAt(3, 3))
	assert.Equal(t, red, out.NRGBAAt(2, 1))
	assert.Equal(t, color.NRGBA{A: 255}, out.NRGBAAt(2, 2), "interior stays untouched")
	assert.Equal(t, color.NRGBA{A: 255}, out.NRGBAAt(5, 4))
}
