// Package imageio converts between decoded images and pixel buffers. It is
// the host-side collaborator of the matching engine: the engine itself never
// touches files.
package imageio

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/cwbudde/subimgmatch/internal/match"
	"github.com/cwbudde/subimgmatch/internal/pixbuf"
)

// Load decodes the image file at path. PNG, JPEG, GIF, BMP, TIFF and WebP
// are recognised.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads one image from r.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// LoadBGR loads path as a 3-channel buffer.
func LoadBGR(path string) (*pixbuf.Buffer, error) {
	img, err := Load(path)
	if err != nil {
		return nil, err
	}
	return ToBGR(img), nil
}

// LoadGray loads path as a 1-channel buffer. Gray sources are copied
// directly; everything else goes through ConvertColorToGray.
func LoadGray(path string) (*pixbuf.Buffer, error) {
	img, err := Load(path)
	if err != nil {
		return nil, err
	}
	return ToGray(img)
}

// ToBGR copies img into a 3-channel buffer in blue, green, red order.
// Alpha is dropped without compositing.
func ToBGR(img image.Image) *pixbuf.Buffer {
	src := toNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	buf := pixbuf.NewBGR(w, h)
	for y := 0; y < h; y++ {
		in := src.Pix[y*src.Stride : y*src.Stride+w*4]
		out := buf.Row(y)
		for x := 0; x < w; x++ {
			out[x*3+0] = in[x*4+2]
			out[x*3+1] = in[x*4+1]
			out[x*3+2] = in[x*4+0]
		}
	}
	return buf
}

// ToGray converts img into a 1-channel buffer.
func ToGray(img image.Image) (*pixbuf.Buffer, error) {
	if g, ok := img.(*image.Gray); ok {
		w, h := g.Rect.Dx(), g.Rect.Dy()
		buf := pixbuf.NewGray(w, h)
		for y := 0; y < h; y++ {
			copy(buf.Row(y), g.Pix[y*g.Stride:y*g.Stride+w])
		}
		return buf, nil
	}
	return match.ConvertColorToGray(ToBGR(img))
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	return dst
}

// Image renders a buffer as an image: gray buffers as Gray, BGR buffers as
// NRGBA and float fields through FieldImage.
func Image(buf *pixbuf.Buffer) (image.Image, error) {
	switch {
	case buf.Check(1, pixbuf.Uint8) == nil:
		g := image.NewGray(image.Rect(0, 0, buf.Width, buf.Height))
		copy(g.Pix, buf.Pix)
		return g, nil
	case buf.Check(3, pixbuf.Uint8) == nil:
		n := image.NewNRGBA(image.Rect(0, 0, buf.Width, buf.Height))
		for i := 0; i < buf.Width*buf.Height; i++ {
			n.Pix[i*4+0] = buf.Pix[i*3+2]
			n.Pix[i*4+1] = buf.Pix[i*3+1]
			n.Pix[i*4+2] = buf.Pix[i*3+0]
			n.Pix[i*4+3] = 255
		}
		return n, nil
	case buf.Check(1, pixbuf.Float32) == nil:
		return FieldImage(buf, 0), nil
	default:
		return nil, fmt.Errorf("cannot render buffer: %w", pixbuf.ErrInvalidInput)
	}
}

// FieldImage maps the absolute values of a float field to gray, scaling
// [0, limit] to [0, 255]. A limit of zero scales by the largest sample.
func FieldImage(field *pixbuf.Buffer, limit float32) *image.Gray {
	if limit <= 0 {
		for _, v := range field.Float {
			if v < 0 {
				v = -v
			}
			if v > limit {
				limit = v
			}
		}
	}
	g := image.NewGray(image.Rect(0, 0, field.Width, field.Height))
	if limit == 0 {
		return g
	}
	for i, v := range field.Float {
		if v < 0 {
			v = -v
		}
		s := v / limit * 255
		if s > 255 {
			s = 255
		}
		g.Pix[i] = uint8(s)
	}
	return g
}

// Overlay draws the outline of a w x h box at (x, y) on top of ref.
func Overlay(ref *pixbuf.Buffer, x, y, w, h int, c color.NRGBA) (*image.NRGBA, error) {
	base, err := Image(ref)
	if err != nil {
		return nil, err
	}
	out := toNRGBA(base)

	box := image.Rect(x, y, x+w, y+h).Intersect(out.Rect)
	if box.Empty() {
		return out, nil
	}
	for px := box.Min.X; px < box.Max.X; px++ {
		out.SetNRGBA(px, box.Min.Y, c)
		out.SetNRGBA(px, box.Max.Y-1, c)
	}
	for py := box.Min.Y; py < box.Max.Y; py++ {
		out.SetNRGBA(box.Min.X, py, c)
		out.SetNRGBA(box.Max.X-1, py, c)
	}
	return out, nil
}

// WritePNG encodes img to w.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// SavePNG writes img to path. The file is written to a temporary name
// first and renamed, so readers never see a partial image.
func SavePNG(path string, img image.Image) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := WritePNG(f, img); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close output: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename output: %w", err)
	}
	return nil
}
