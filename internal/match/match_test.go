package match

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/cwbudde/subimgmatch/internal/pixbuf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindBestOffset_SelfMatch(t *testing.T) {
	gray := randomBuffer(t, 12, 9, 1, 7)
	bgr := randomBuffer(t, 12, 9, 3, 7)

	for _, s := range Strategies {
		t.Run(s.String(), func(t *testing.T) {
			buf := gray
			if s == ColorSAD {
				buf = bgr
			}
			res, err := FindBestOffset(s, buf, buf)
			require.NoError(t, err)
			assert.Equal(t, 0, res.X)
			assert.Equal(t, 0, res.Y)
			assert.Equal(t, 1, res.Candidates)
			if s == Correlation {
				assert.InDelta(t, 1.0, res.Score, 0.002)
			} else {
				assert.Zero(t, res.Score)
			}
		})
	}
}

func TestFindBestOffset_ConstantGray(t *testing.T) {
	ref := pixbuf.NewGray(4, 4)
	ref.Fill(200)
	tpl := pixbuf.NewGray(2, 2)
	tpl.Fill(200)

	res, err := FindBestOffset(GraySAD, ref, tpl)
	require.NoError(t, err)
	assert.Equal(t, Result{X: 0, Y: 0, Score: 0, Strategy: GraySAD, Candidates: 9}, res)
}

func TestFindBestOffset_ColorWindow(t *testing.T) {
	ref := pixbuf.NewBGR(3, 3)
	ref.Fill(10)
	tpl := pixbuf.NewBGR(2, 2)
	for i := range tpl.Pix {
		tpl.Pix[i] = uint8(50 + i)
	}
	for y := 0; y < 2; y++ {
		copy(ref.Row(1 + y)[3:9], tpl.Row(y))
	}

	res, err := FindBestOffset(ColorSAD, ref, tpl)
	require.NoError(t, err)
	assert.Equal(t, 1, res.X)
	assert.Equal(t, 1, res.Y)
	assert.Zero(t, res.Score)
}

func TestFindBestOffset_PlantedTemplate(t *testing.T) {
	gray := randomBuffer(t, 40, 30, 1, 11)
	bgr := randomBuffer(t, 40, 30, 3, 12)

	tests := []struct {
		strategy Strategy
		ref      *pixbuf.Buffer
	}{
		{GraySAD, gray},
		{ColorSAD, bgr},
		{Correlation, gray},
		{HistDiff, gray},
	}

	for _, tt := range tests {
		t.Run(tt.strategy.String(), func(t *testing.T) {
			tpl := crop(t, tt.ref, 13, 7, 8, 6)
			res, err := FindBestOffset(tt.strategy, tt.ref, tpl)
			require.NoError(t, err)
			assert.Equal(t, 13, res.X)
			assert.Equal(t, 7, res.Y)
			assert.Equal(t, 33*25, res.Candidates)
		})
	}
}

func TestFindBestOffset_TieBreakIsRowMajor(t *testing.T) {
	ref := grayFrom(t, 6, 2,
		0, 9, 9, 0, 9, 9,
		0, 9, 9, 0, 9, 9,
	)
	tpl := grayFrom(t, 2, 1, 9, 9)

	for _, workers := range []int{0, 2, 3} {
		res, err := Search(context.Background(), GraySAD, ref, tpl, Options{Workers: workers})
		require.NoError(t, err)
		assert.Equal(t, 1, res.X, "workers=%d", workers)
		assert.Equal(t, 0, res.Y, "workers=%d", workers)
		assert.Zero(t, res.Score)
	}
}

func TestFindBestOffset_AngleAndMagnitudeOnStructure(t *testing.T) {
	// A bright square on black; the template is the same square with a
	// two-pixel margin, so its gradients line up exactly when placed at (4, 3).
	ref := pixbuf.NewGray(20, 16)
	for y := 5; y < 10; y++ {
		for x := 6; x < 11; x++ {
			ref.Row(y)[x] = 220
		}
	}
	tpl := crop(t, ref, 4, 3, 9, 9)

	for _, s := range []Strategy{AngleDiff, MagDiff} {
		res, err := FindBestOffset(s, ref, tpl)
		require.NoError(t, err)
		assert.Equal(t, 4, res.X, s.String())
		assert.Equal(t, 3, res.Y, s.String())
		assert.Zero(t, res.Score, s.String())
	}
}

func TestFindBestOffset_InvalidInput(t *testing.T) {
	gray := pixbuf.NewGray(4, 4)
	small := pixbuf.NewGray(2, 2)
	large := pixbuf.NewGray(5, 3)
	bgr := pixbuf.NewBGR(4, 4)
	empty := &pixbuf.Buffer{Channels: 1}

	for _, s := range Strategies {
		t.Run(s.String(), func(t *testing.T) {
			ref, tpl := gray, small
			if s == ColorSAD {
				ref, tpl = bgr, pixbuf.NewBGR(2, 2)
			}

			_, err := FindBestOffset(s, nil, tpl)
			assert.ErrorIs(t, err, ErrInvalidInput)

			_, err = FindBestOffset(s, ref, empty)
			assert.ErrorIs(t, err, ErrInvalidInput)

			_, err = FindBestOffset(s, tpl, ref)
			assert.ErrorIs(t, err, ErrInvalidInput, "template larger than reference")

			if s != ColorSAD {
				_, err = FindBestOffset(s, gray, large)
				assert.ErrorIs(t, err, ErrInvalidInput, "template wider than reference")

				_, err = FindBestOffset(s, bgr, small)
				assert.ErrorIs(t, err, ErrInvalidInput, "color reference")
			} else {
				_, err = FindBestOffset(s, gray, small)
				assert.ErrorIs(t, err, ErrInvalidInput, "gray reference")
			}
		})
	}

	_, err := FindBestOffset(Strategy(42), gray, small)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSearch_ParallelMatchesSerial(t *testing.T) {
	gray := randomBuffer(t, 37, 29, 1, 21)
	bgr := randomBuffer(t, 37, 29, 3, 22)
	grayTpl := randomBuffer(t, 7, 5, 1, 23)
	bgrTpl := randomBuffer(t, 7, 5, 3, 24)

	for _, s := range Strategies {
		t.Run(s.String(), func(t *testing.T) {
			ref, tpl := gray, grayTpl
			if s == ColorSAD {
				ref, tpl = bgr, bgrTpl
			}
			serial, err := Search(context.Background(), s, ref, tpl, Options{})
			require.NoError(t, err)

			for _, workers := range []int{2, 5, -1, 100} {
				parallel, err := Search(context.Background(), s, ref, tpl, Options{Workers: workers})
				require.NoError(t, err)
				assert.Equal(t, serial, parallel, "workers=%d", workers)
			}
		})
	}
}

func TestSearch_SlidingHistogramMatchesRecount(t *testing.T) {
	for seed := int64(0); seed < 5; seed++ {
		ref := randomBuffer(t, 30, 20, 1, 100+seed)
		tpl := randomBuffer(t, 6, 4, 1, 200+seed)

		recount := newHistKernelT(t, ref, tpl, false)
		sliding := newHistKernelT(t, ref, tpl, true)

		cols := ref.Width - tpl.Width + 1
		a := make([]float64, cols)
		b := make([]float64, cols)
		for y := 0; y <= ref.Height-tpl.Height; y++ {
			recount.scoreRow(y, a)
			sliding.scoreRow(y, b)
			require.Equal(t, a, b, "seed=%d row=%d", seed, y)
		}
	}
}

func newHistKernelT(t *testing.T, ref, tpl *pixbuf.Buffer, sliding bool) *histKernel {
	t.Helper()
	k, err := newHistKernel(ref, tpl, sliding)
	require.NoError(t, err)
	return k
}

func TestSearch_Cancelled(t *testing.T) {
	ref := randomBuffer(t, 20, 20, 1, 3)
	tpl := randomBuffer(t, 4, 4, 1, 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{0, 4} {
		_, err := Search(ctx, GraySAD, ref, tpl, Options{Workers: workers})
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestSearch_ReportsProgress(t *testing.T) {
	ref := randomBuffer(t, 20, 15, 1, 3)
	tpl := randomBuffer(t, 4, 4, 1, 4)

	for _, workers := range []int{0, 3} {
		var calls, last atomic.Int64
		_, err := Search(context.Background(), Correlation, ref, tpl, Options{
			Workers: workers,
			Progress: func(done, total int) {
				calls.Add(1)
				assert.Equal(t, 12, total)
				if int64(done) > last.Load() {
					last.Store(int64(done))
				}
			},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(12), calls.Load())
		assert.Equal(t, int64(12), last.Load())
	}
}

func TestParseStrategy(t *testing.T) {
	for _, s := range Strategies {
		got, err := ParseStrategy(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	got, err := ParseStrategy(" HIST ")
	require.NoError(t, err)
	assert.Equal(t, HistDiff, got)

	_, err = ParseStrategy("ssd")
	assert.Error(t, err)
}
