package match

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFastAngle_Quadrants(t *testing.T) {
	tests := []struct {
		name   string
		dx, dy float32
		want   float64
	}{
		{"zero", 0, 0, 0},
		{"east", 80, 0, 0},
		{"north", 0, 80, 90},
		{"west", -80, 0, 180},
		{"south", 0, -80, 270},
		{"diagonal", 40, 40, 45},
		{"second quadrant", -40, 40, 135},
		{"third quadrant", -40, -40, 225},
		{"fourth quadrant", 40, -40, 315},
		{"shallow", 100, 10, math.Atan2(10, 100) * 180 / math.Pi},
		{"steep", -7, 300, math.Atan2(300, -7) * 180 / math.Pi},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := float64(fastAngle(tt.dx, tt.dy))
			assert.InDelta(t, tt.want, got, 0.02)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.Less(t, got, 360.0)
		})
	}
}

func TestFastAngle_ZeroGradientIsExactlyZero(t *testing.T) {
	assert.Equal(t, float32(0), fastAngle(0, 0))
}

func TestFastSqrt_CloseToSqrt(t *testing.T) {
	for _, v := range []float32{1, 2, 9, 100, 6400, 12345, 2 * 1020 * 1020} {
		got := float64(fastSqrt(v))
		want := math.Sqrt(float64(v))
		assert.InEpsilon(t, want, got, 0.01, "v=%v", v)
	}
}

func TestFastAngleMagnitude_GoldenBits(t *testing.T) {
	// Bit patterns produced by the float32 reference formulas.
	tests := []struct {
		dx, dy     float32
		angle, mag uint32
	}{
		{-1013, -1020, 1130443873, 1152633183},
		{0, 0, 0, 523986865},
		{80, 0, 0, 1117782089},
		{0, 80, 1119092736, 1117782089},
		{-80, 0, 1127481344, 1117782089},
		{0, -80, 1132920832, 1117782089},
		{40, 40, 1110701076, 1113737960},
		{-40, 40, 1124532986, 1113737960},
		{-40, -40, 1130429702, 1113737960},
		{40, -40, 1134395774, 1113737960},
		{100, 10, 1085718443, 1120469108},
		{-7, 300, 1119267935, 1133908166},
		{1020, -3, 1135864430, 1149176592},
		{-255, 1020, 1120932907, 1149467777},
		{3, 4, 1112837150, 1084227657},
		{-1, -1, 1130429702, 1068835021},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.angle, math.Float32bits(fastAngle(tt.dx, tt.dy)), "angle dx=%v dy=%v", tt.dx, tt.dy)
		assert.Equal(t, tt.mag, math.Float32bits(magnitude(tt.dx, tt.dy)), "magnitude dx=%v dy=%v", tt.dx, tt.dy)
	}
}

func TestFastSqrtInvSqrt_GoldenBits(t *testing.T) {
	tests := []struct {
		v             float32
		sqrt, invSqrt uint32
	}{
		{0, 523986865, 1602847591},
		{1, 1065354592, 1065324815},
		{2, 1068835021, 1060436318},
		{4, 1073743200, 1056936207},
		{9, 1077938072, 1051359448},
		{100, 1092616265, 1036811129},
		{10000, 1120403836, 1008964174},
		{12345, 1121860245, 1007900317},
		{3.3e9, 1197500842, 932310896},
		{4.2e12, 1241134625, 889373413},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.sqrt, math.Float32bits(fastSqrt(tt.v)), "sqrt v=%v", tt.v)
		assert.Equal(t, tt.invSqrt, math.Float32bits(fastInvSqrt(tt.v)), "invsqrt v=%v", tt.v)
	}
}

func TestFastInvSqrt_ZeroIsFinite(t *testing.T) {
	got := float64(fastInvSqrt(0))
	assert.False(t, math.IsInf(got, 0) || math.IsNaN(got))
	assert.InEpsilon(t, 1.98e19, got, 0.01)
}

func TestAngleDistance_WrapsAround(t *testing.T) {
	tests := []struct {
		a, b int32
		want int64
	}{
		{0, 0, 0},
		{10, 0, 10},
		{0, 10, 10},
		{179, 0, 179},
		{180, 0, 180},
		{0, 180, 180},
		{181, 0, 179},
		{359, 0, 1},
		{0, 359, 1},
		{270, 90, 180},
		{350, 10, 20},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, angleDistance(tt.a, tt.b), "a=%d b=%d", tt.a, tt.b)
	}
}

func TestFastInvSqrt_CloseToReciprocalSqrt(t *testing.T) {
	for _, v := range []float32{1, 4, 1e4, 3.3e9, 4.2e12} {
		got := float64(fastInvSqrt(v))
		want := 1 / math.Sqrt(float64(v))
		assert.InEpsilon(t, want, got, 0.002, "v=%v", v)
	}
}

func TestMagnitude_NonNegative(t *testing.T) {
	for _, g := range [][2]float32{{0, 0}, {-1020, 0}, {3, -4}, {-500, -700}} {
		assert.GreaterOrEqual(t, magnitude(g[0], g[1]), float32(0))
	}
	assert.InDelta(t, 5.0, float64(magnitude(3, -4)), 0.05)
}
