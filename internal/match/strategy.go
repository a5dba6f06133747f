package match

import (
	"fmt"
	"strings"

	"github.com/cwbudde/subimgmatch/internal/pixbuf"
)

// Strategy selects the similarity criterion of a search.
type Strategy int

const (
	GraySAD Strategy = iota
	ColorSAD
	Correlation
	AngleDiff
	MagDiff
	HistDiff
)

// Strategies lists every strategy in declaration order.
var Strategies = []Strategy{GraySAD, ColorSAD, Correlation, AngleDiff, MagDiff, HistDiff}

func (s Strategy) String() string {
	switch s {
	case GraySAD:
		return "gray-sad"
	case ColorSAD:
		return "color-sad"
	case Correlation:
		return "corr"
	case AngleDiff:
		return "angle"
	case MagDiff:
		return "mag"
	case HistDiff:
		return "hist"
	default:
		return "unknown"
	}
}

// ParseStrategy resolves a strategy by its String name.
func ParseStrategy(name string) (Strategy, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, s := range Strategies {
		if s.String() == n {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q", name)
}

// MarshalText encodes the strategy by name.
func (s Strategy) MarshalText() ([]byte, error) {
	if s.String() == "unknown" {
		return nil, fmt.Errorf("unknown strategy %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a strategy name.
func (s *Strategy) UnmarshalText(text []byte) error {
	v, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Channels is the channel count both inputs must have.
func (s Strategy) Channels() int {
	if s == ColorSAD {
		return 3
	}
	return 1
}

// Direction reports whether the strategy's score is minimized or maximized.
func (s Strategy) Direction() Direction {
	if s == Correlation {
		return Maximize
	}
	return Minimize
}

// kernelFor validates the inputs for s and builds its window scorer.
func kernelFor(s Strategy, ref, tpl *pixbuf.Buffer, opts Options) (kernel, error) {
	switch s {
	case GraySAD, ColorSAD:
		return newSADKernel(ref, tpl), nil
	case Correlation:
		return newCorrKernel(ref, tpl), nil
	case AngleDiff, MagDiff:
		refField, err := orientationOf(ref)
		if err != nil {
			return nil, err
		}
		tplField, err := orientationOf(tpl)
		if err != nil {
			return nil, err
		}
		if s == AngleDiff {
			return newFieldKernel(refField.Angle, tplField.Angle, angleDistance), nil
		}
		return newFieldKernel(refField.Magnitude, tplField.Magnitude, absDistance), nil
	case HistDiff:
		return newHistKernel(ref, tpl, opts.SlidingHistogram)
	default:
		return nil, fmt.Errorf("strategy %d: %w", int(s), pixbuf.ErrInvalidInput)
	}
}
