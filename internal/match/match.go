// Package match locates a template inside a reference buffer by exhaustive
// sliding-window search. Every top-left offset at which the template fits is
// scored under one of six strategies; the best score wins and equal scores
// resolve to the offset met first in row-major order.
//
// The package also exposes the preprocessing stages the gradient and
// histogram strategies are built on: gray reduction, Sobel gradients,
// orientation and magnitude fields, thresholding and histograms.
package match

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/subimgmatch/internal/pixbuf"
)

// ErrInvalidInput is returned, wrapped, for every contract violation.
var ErrInvalidInput = pixbuf.ErrInvalidInput

// FindBestOffset runs the canonical serial search for tpl inside ref.
func FindBestOffset(s Strategy, ref, tpl *pixbuf.Buffer) (Result, error) {
	return Search(context.Background(), s, ref, tpl, Options{})
}

// Search finds the best offset of tpl inside ref under strategy s. It fails
// with ErrInvalidInput when either buffer is empty, has the wrong channel
// count or element kind for s, or when tpl does not fit inside ref. A
// cancelled ctx aborts the scan between offset rows.
func Search(ctx context.Context, s Strategy, ref, tpl *pixbuf.Buffer, opts Options) (Result, error) {
	if err := validate(s, ref, tpl); err != nil {
		return Result{}, err
	}

	rows := ref.Height - tpl.Height + 1
	cols := ref.Width - tpl.Width + 1

	k, err := kernelFor(s, ref, tpl, opts)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", s, err)
	}

	start := time.Now()
	acc, err := scan(ctx, k, rows, cols, s.Direction(), opts)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", s, err)
	}

	res := Result{
		X:          acc.x,
		Y:          acc.y,
		Score:      acc.score,
		Strategy:   s,
		Candidates: rows * cols,
	}
	slog.Debug("Search complete",
		"strategy", s,
		"x", res.X,
		"y", res.Y,
		"score", res.Score,
		"candidates", res.Candidates,
		"elapsed", time.Since(start),
	)
	return res, nil
}

func validate(s Strategy, ref, tpl *pixbuf.Buffer) error {
	if s.String() == "unknown" {
		return fmt.Errorf("strategy %d: %w", int(s), ErrInvalidInput)
	}
	ch := s.Channels()
	if err := ref.Check(ch, pixbuf.Uint8); err != nil {
		return fmt.Errorf("%s reference: %w", s, err)
	}
	if err := tpl.Check(ch, pixbuf.Uint8); err != nil {
		return fmt.Errorf("%s template: %w", s, err)
	}
	if ref.Width-tpl.Width+1 <= 0 || ref.Height-tpl.Height+1 <= 0 {
		return fmt.Errorf("%s: template %dx%d does not fit reference %dx%d: %w",
			s, tpl.Width, tpl.Height, ref.Width, ref.Height, ErrInvalidInput)
	}
	return nil
}
