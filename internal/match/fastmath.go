package match

import "github.com/chewxy/math32"

// Approximations used in the hot loops. They must stay bit-exact: match
// results on gradient fields depend on the approximated values, not on the
// true atan2 and sqrt. Products are wrapped in explicit float32 conversions
// so the compiler cannot fuse them into FMA instructions on arm64.

const (
	// angleEpsilon biases the octant ratio so 0/0 yields 0.
	angleEpsilon = float32(2.220446049250313e-16)

	atanC1 = float32(-0.0464964749)
	atanC2 = float32(0.15931422)
	atanC3 = float32(0.327622764)

	halfPi = math32.Pi / 2
	twoPi  = math32.Pi * 2

	// sqrtMagic seeds a square root from the halved exponent.
	sqrtMagic = 0x3F76CF62
	// invSqrtMagic seeds a reciprocal square root.
	invSqrtMagic = 0x5F3759DF
)

// fastAngle approximates atan2(dy, dx) in degrees within [0, 360).
func fastAngle(dx, dy float32) float32 {
	ax, ay := math32.Abs(dx), math32.Abs(dy)
	hi, lo := ax, ay
	if hi < lo {
		hi, lo = ay, ax
	}

	a := lo / (hi + angleEpsilon)
	s := float32(a * a)
	r := float32(float32(float32(float32(float32(atanC1*s)+atanC2)*s)-atanC3)*s)
	r = float32(r*a) + a

	if ay > ax {
		r = halfPi - r
	}
	if dx < 0 {
		r = math32.Pi - r
	}
	if dy < 0 {
		r = twoPi - r
	}
	return float32(r/math32.Pi) * 180
}

// fastSqrt approximates sqrt(v) with a bit-level seed and one Newton step.
func fastSqrt(v float32) float32 {
	t := (math32.Float32bits(v) + sqrtMagic) >> 1
	s := math32.Float32frombits(t)
	return (s + v/s) * 0.5
}

// fastInvSqrt approximates 1/sqrt(v) with a bit-level seed and one Newton step.
func fastInvSqrt(v float32) float32 {
	half := float32(0.5 * v)
	i := int32(math32.Float32bits(v))
	i = invSqrtMagic - (i >> 1)
	y := math32.Float32frombits(uint32(i))
	return float32(y * float32(1.5-float32(float32(half*y)*y)))
}

// magnitude approximates the Euclidean norm of (dx, dy).
func magnitude(dx, dy float32) float32 {
	return fastSqrt(float32(dx*dx) + float32(dy*dy))
}
