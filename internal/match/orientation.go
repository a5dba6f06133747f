package match

import (
	"fmt"

	"github.com/cwbudde/subimgmatch/internal/pixbuf"
)

// ComputeOrientationMagnitude turns a gradient pair into per-pixel angle
// (degrees) and magnitude fields using the fast approximations.
func ComputeOrientationMagnitude(grad pixbuf.GradientPair) (pixbuf.OrientationField, error) {
	if err := grad.DX.Check(1, pixbuf.Float32); err != nil {
		return pixbuf.OrientationField{}, fmt.Errorf("orientation dx: %w", err)
	}
	if err := grad.DY.Check(1, pixbuf.Float32); err != nil {
		return pixbuf.OrientationField{}, fmt.Errorf("orientation dy: %w", err)
	}
	if !pixbuf.SameGeometry(grad.DX, grad.DY) {
		return pixbuf.OrientationField{}, fmt.Errorf("orientation: dx is %dx%d, dy is %dx%d: %w",
			grad.DX.Width, grad.DX.Height, grad.DY.Width, grad.DY.Height, pixbuf.ErrInvalidInput)
	}

	angle := pixbuf.NewFloat(grad.DX.Width, grad.DX.Height)
	mag := pixbuf.NewFloat(grad.DX.Width, grad.DX.Height)
	for i, gx := range grad.DX.Float {
		gy := grad.DY.Float[i]
		angle.Float[i] = fastAngle(gx, gy)
		mag.Float[i] = magnitude(gx, gy)
	}
	return pixbuf.OrientationField{Angle: angle, Magnitude: mag}, nil
}

// orientationOf runs the gray -> gradient -> orientation pipeline.
func orientationOf(gray *pixbuf.Buffer) (pixbuf.OrientationField, error) {
	grad, err := ComputeGradient(gray)
	if err != nil {
		return pixbuf.OrientationField{}, err
	}
	return ComputeOrientationMagnitude(grad)
}
