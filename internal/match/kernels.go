package match

import (
	"github.com/cwbudde/subimgmatch/internal/pixbuf"
)

// sadKernel sums absolute sample differences over the window. Channels are
// interleaved, so gray and BGR share the same loop over row slices.
type sadKernel struct {
	ref, tpl *pixbuf.Buffer
}

func newSADKernel(ref, tpl *pixbuf.Buffer) *sadKernel {
	return &sadKernel{ref: ref, tpl: tpl}
}

func (k *sadKernel) scoreRow(y int, dst []float64) {
	ch := k.ref.Channels
	span := k.tpl.Stride()
	acc := make([]int64, len(dst))
	for ty := 0; ty < k.tpl.Height; ty++ {
		rr := k.ref.Row(y + ty)
		tr := k.tpl.Row(ty)
		for x := range acc {
			acc[x] += sadRow(rr[x*ch:x*ch+span], tr)
		}
	}
	for x, v := range acc {
		dst[x] = float64(v)
	}
}

func sadRow(a, b []uint8) int64 {
	b = b[:len(a)]
	var sum int64
	for i, av := range a {
		d := int64(av) - int64(b[i])
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum
}

// corrKernel scores sum(ref*tpl) scaled by the reciprocal square root of
// sum(ref^2)*sum(tpl^2). Sums are float32 and accumulate in row-major window
// order, one term at a time.
type corrKernel struct {
	ref, tpl *pixbuf.Buffer
	sumTT    float32
}

func newCorrKernel(ref, tpl *pixbuf.Buffer) *corrKernel {
	var tt float32
	for _, t := range tpl.Pix {
		tt += float32(int(t) * int(t))
	}
	return &corrKernel{ref: ref, tpl: tpl, sumTT: tt}
}

func (k *corrKernel) scoreRow(y int, dst []float64) {
	st := make([]float32, len(dst))
	ss := make([]float32, len(dst))
	tw := k.tpl.Width
	for ty := 0; ty < k.tpl.Height; ty++ {
		rr := k.ref.Row(y + ty)
		tr := k.tpl.Row(ty)
		for x := range st {
			win := rr[x : x+tw]
			for tx, t := range tr {
				r := int(win[tx])
				st[x] += float32(r * int(t))
				ss[x] += float32(r * r)
			}
		}
	}
	for x := range dst {
		dst[x] = float64(st[x] * fastInvSqrt(float32(ss[x]*k.sumTT)))
	}
}

// distanceFunc compares two truncated field samples.
type distanceFunc func(a, b int32) int64

// angleDistance is the circular distance between two whole-degree angles.
func angleDistance(a, b int32) int64 {
	d := a - b
	if d < 0 {
		d = -d
	}
	if d >= 180 {
		return int64(360 - d)
	}
	return int64(d)
}

func absDistance(a, b int32) int64 {
	d := int64(a) - int64(b)
	if d < 0 {
		return -d
	}
	return d
}

// fieldKernel compares float fields after truncating every sample toward
// zero. Truncation happens once per field, not once per window.
type fieldKernel struct {
	ref, tpl  []int32
	refStride int
	tplW      int
	tplH      int
	dist      distanceFunc
}

func newFieldKernel(ref, tpl *pixbuf.Buffer, dist distanceFunc) *fieldKernel {
	return &fieldKernel{
		ref:       truncateField(ref),
		tpl:       truncateField(tpl),
		refStride: ref.Width,
		tplW:      tpl.Width,
		tplH:      tpl.Height,
		dist:      dist,
	}
}

func truncateField(f *pixbuf.Buffer) []int32 {
	out := make([]int32, len(f.Float))
	for i, v := range f.Float {
		out[i] = int32(v)
	}
	return out
}

func (k *fieldKernel) scoreRow(y int, dst []float64) {
	acc := make([]int64, len(dst))
	for ty := 0; ty < k.tplH; ty++ {
		rr := k.ref[(y+ty)*k.refStride : (y+ty+1)*k.refStride]
		tr := k.tpl[ty*k.tplW : (ty+1)*k.tplW]
		for x := range acc {
			win := rr[x : x+k.tplW]
			var sum int64
			for tx, t := range tr {
				sum += k.dist(win[tx], t)
			}
			acc[x] += sum
		}
	}
	for x, v := range acc {
		dst[x] = float64(v)
	}
}

// histKernel compares the intensity histogram of each window against the
// template's.
type histKernel struct {
	ref     *pixbuf.Buffer
	tplW    int
	tplH    int
	tplHist pixbuf.Histogram
	sliding bool
}

func newHistKernel(ref, tpl *pixbuf.Buffer, sliding bool) (*histKernel, error) {
	h, err := ComputeHistogram(tpl, HistogramBuckets)
	if err != nil {
		return nil, err
	}
	return &histKernel{ref: ref, tplW: tpl.Width, tplH: tpl.Height, tplHist: h, sliding: sliding}, nil
}

func (k *histKernel) scoreRow(y int, dst []float64) {
	var hist [HistogramBuckets]int
	if !k.sliding {
		for x := range dst {
			clear(hist[:])
			for ty := 0; ty < k.tplH; ty++ {
				for _, p := range k.ref.Row(y + ty)[x : x+k.tplW] {
					hist[p]++
				}
			}
			dst[x] = float64(k.distance(&hist))
		}
		return
	}

	for ty := 0; ty < k.tplH; ty++ {
		for _, p := range k.ref.Row(y + ty)[:k.tplW] {
			hist[p]++
		}
	}
	dst[0] = float64(k.distance(&hist))
	for x := 1; x < len(dst); x++ {
		for ty := 0; ty < k.tplH; ty++ {
			row := k.ref.Row(y + ty)
			hist[row[x-1]]--
			hist[row[x+k.tplW-1]]++
		}
		dst[x] = float64(k.distance(&hist))
	}
}

func (k *histKernel) distance(hist *[HistogramBuckets]int) int64 {
	var sum int64
	for i, c := range hist {
		d := int64(c - k.tplHist[i])
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum
}
