package match

import (
	"fmt"

	"github.com/cwbudde/subimgmatch/internal/pixbuf"
)

// ComputeGradient estimates horizontal and vertical derivatives of a gray
// buffer with the 3x3 Sobel pair. The one-pixel border has no full
// neighbourhood and is left at zero; buffers narrower or shorter than three
// pixels produce all-zero derivatives.
func ComputeGradient(gray *pixbuf.Buffer) (pixbuf.GradientPair, error) {
	if err := gray.Check(1, pixbuf.Uint8); err != nil {
		return pixbuf.GradientPair{}, fmt.Errorf("compute gradient: %w", err)
	}

	w, h := gray.Width, gray.Height
	dx := pixbuf.NewFloat(w, h)
	dy := pixbuf.NewFloat(w, h)
	if w < 3 || h < 3 {
		return pixbuf.GradientPair{DX: dx, DY: dy}, nil
	}

	for i := 1; i < h-1; i++ {
		front, this, next := gray.Row(i-1), gray.Row(i), gray.Row(i+1)
		gx, gy := dx.FloatRow(i), dy.FloatRow(i)
		for j := 1; j < w-1; j++ {
			fl, fc, fr := int(front[j-1]), int(front[j]), int(front[j+1])
			tl, tr := int(this[j-1]), int(this[j+1])
			nl, nc, nr := int(next[j-1]), int(next[j]), int(next[j+1])

			gx[j] = float32(-fl + fr - 2*tl + 2*tr - nl + nr)
			gy[j] = float32(-fl - 2*fc - fr + nl + 2*nc + nr)
		}
	}
	return pixbuf.GradientPair{DX: dx, DY: dy}, nil
}
