package match

import (
	"context"
	"fmt"
	"testing"
)

func BenchmarkSearch(b *testing.B) {
	gray := randomBuffer(b, 160, 120, 1, 1)
	bgr := randomBuffer(b, 160, 120, 3, 2)
	grayTpl := crop(b, gray, 70, 40, 24, 16)
	bgrTpl := crop(b, bgr, 70, 40, 24, 16)

	for _, s := range Strategies {
		ref, tpl := gray, grayTpl
		if s == ColorSAD {
			ref, tpl = bgr, bgrTpl
		}
		for _, workers := range []int{0, -1} {
			b.Run(fmt.Sprintf("%s/workers=%d", s, workers), func(b *testing.B) {
				opts := Options{Workers: workers}
				for i := 0; i < b.N; i++ {
					if _, err := Search(context.Background(), s, ref, tpl, opts); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}

	b.Run("hist/sliding", func(b *testing.B) {
		opts := Options{SlidingHistogram: true}
		for i := 0; i < b.N; i++ {
			if _, err := Search(context.Background(), HistDiff, gray, grayTpl, opts); err != nil {
				b.Fatal(err)
			}
		}
	})
}
