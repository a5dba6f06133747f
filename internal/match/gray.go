package match

import (
	"fmt"

	"github.com/cwbudde/subimgmatch/internal/pixbuf"
)

// Fixed-point luma weights scaled by 1024 (0.114, 0.587, 0.299). The
// weights sum to 1024 so a white pixel stays 255.
const (
	lumaBlue  = 117
	lumaGreen = 601
	lumaRed   = 306
	lumaShift = 10
)

// ConvertColorToGray reduces a 3-channel BGR buffer to a 1-channel gray
// buffer of the same geometry.
func ConvertColorToGray(bgr *pixbuf.Buffer) (*pixbuf.Buffer, error) {
	if err := bgr.Check(3, pixbuf.Uint8); err != nil {
		return nil, fmt.Errorf("convert to gray: %w", err)
	}

	gray := pixbuf.NewGray(bgr.Width, bgr.Height)
	src := bgr.Pix
	for i := range gray.Pix {
		p := src[i*3 : i*3+3 : i*3+3]
		gray.Pix[i] = uint8((int(p[0])*lumaBlue + int(p[1])*lumaGreen + int(p[2])*lumaRed) >> lumaShift)
	}
	return gray, nil
}
