package match

import (
	"fmt"

	"github.com/cwbudde/subimgmatch/internal/pixbuf"
)

// HistogramBuckets is the bucket count used by the histogram strategy.
const HistogramBuckets = 256

// ComputeHistogram counts gray intensities into bucketCount buckets.
// Samples with intensity >= bucketCount are dropped, not reported.
func ComputeHistogram(gray *pixbuf.Buffer, bucketCount int) (pixbuf.Histogram, error) {
	if err := gray.Check(1, pixbuf.Uint8); err != nil {
		return nil, fmt.Errorf("compute histogram: %w", err)
	}
	if bucketCount <= 0 {
		return nil, fmt.Errorf("compute histogram: bucket count %d: %w", bucketCount, pixbuf.ErrInvalidInput)
	}

	hist := make(pixbuf.Histogram, bucketCount)
	for _, p := range gray.Pix {
		if int(p) < bucketCount {
			hist[p]++
		}
	}
	return hist, nil
}
