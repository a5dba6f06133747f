package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cwbudde/subimgmatch/internal/imageio"
	"github.com/cwbudde/subimgmatch/internal/match"
	"github.com/cwbudde/subimgmatch/internal/pixbuf"
	"github.com/spf13/cobra"
)

var (
	preprocessIn  string
	preprocessOut string
	threshold     int
	bucketCount   int
	histJSON      bool
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess",
	Short: "Write the derived images the matchers work on",
	Long: `Reduces an image to gray and writes the intermediate products to the
output directory:

  gray.png       luma reduction
  threshold.png  255 where gray < threshold, else 0
  dx.png, dy.png absolute Sobel responses
  angle.png      gradient orientation, 0..360 degrees scaled to 0..255
  magnitude.png  gradient magnitude, scaled to the largest value

The gray histogram is printed to stdout.`,
	RunE: runPreprocess,
}

func init() {
	preprocessCmd.Flags().StringVar(&preprocessIn, "in", "", "Input image path (required)")
	preprocessCmd.Flags().StringVarP(&preprocessOut, "out-dir", "o", ".", "Output directory")
	preprocessCmd.Flags().IntVar(&threshold, "threshold", 128, "Binarization threshold")
	preprocessCmd.Flags().IntVar(&bucketCount, "buckets", match.HistogramBuckets, "Histogram bucket count")
	preprocessCmd.Flags().BoolVar(&histJSON, "json", false, "Print the histogram as a JSON array")

	preprocessCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(preprocessCmd)
}

func runPreprocess(cmd *cobra.Command, args []string) error {
	gray, err := imageio.LoadGray(preprocessIn)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(preprocessOut, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	mask, err := match.Binarize(gray, threshold)
	if err != nil {
		return err
	}
	grad, err := match.ComputeGradient(gray)
	if err != nil {
		return err
	}
	field, err := match.ComputeOrientationMagnitude(grad)
	if err != nil {
		return err
	}
	hist, err := match.ComputeHistogram(gray, bucketCount)
	if err != nil {
		return err
	}

	outputs := []struct {
		name  string
		buf   *pixbuf.Buffer
		limit float32
	}{
		{"gray.png", gray, 0},
		{"threshold.png", mask, 0},
		{"dx.png", grad.DX, 0},
		{"dy.png", grad.DY, 0},
		{"angle.png", field.Angle, 360},
		{"magnitude.png", field.Magnitude, 0},
	}
	for _, o := range outputs {
		path := filepath.Join(preprocessOut, o.name)
		if err := savePreprocessed(path, o.buf, o.limit); err != nil {
			return err
		}
		slog.Debug("Wrote derived image", "path", path)
	}
	slog.Info("Preprocessing complete", "out_dir", preprocessOut, "width", gray.Width, "height", gray.Height)

	out := cmd.OutOrStdout()
	if histJSON {
		return json.NewEncoder(out).Encode(hist)
	}
	fmt.Fprintf(out, "Histogram (%d buckets, %d of %d pixels counted):\n", len(hist), hist.Sum(), gray.Width*gray.Height)
	for value, count := range hist {
		if count > 0 {
			fmt.Fprintf(out, "  %3d: %d\n", value, count)
		}
	}
	return nil
}

// savePreprocessed writes an 8-bit buffer as is and a float field scaled
// to [0, limit]. A zero limit scales by the field's largest value.
func savePreprocessed(path string, buf *pixbuf.Buffer, limit float32) error {
	if buf.Kind == pixbuf.Float32 {
		return imageio.SavePNG(path, imageio.FieldImage(buf, limit))
	}
	img, err := imageio.Image(buf)
	if err != nil {
		return err
	}
	return imageio.SavePNG(path, img)
}
