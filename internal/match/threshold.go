package match

import (
	"fmt"

	"github.com/cwbudde/subimgmatch/internal/pixbuf"
)

// Binarize maps every gray sample below threshold to 255 and every other
// sample to 0.
func Binarize(gray *pixbuf.Buffer, threshold int) (*pixbuf.Buffer, error) {
	if err := gray.Check(1, pixbuf.Uint8); err != nil {
		return nil, fmt.Errorf("binarize: %w", err)
	}

	mask := pixbuf.NewGray(gray.Width, gray.Height)
	for i, p := range gray.Pix {
		if int(p) < threshold {
			mask.Pix[i] = 255
		}
	}
	return mask, nil
}
