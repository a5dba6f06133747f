package main

import (
	"encoding/json"
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"github.com/cwbudde/subimgmatch/internal/imageio"
	"github.com/cwbudde/subimgmatch/internal/match"
	"github.com/cwbudde/subimgmatch/internal/pixbuf"
	"github.com/cwbudde/subimgmatch/internal/store"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	refPath      string
	tplPath      string
	strategyName string
	workers      int
	sliding      bool
	overlayPath  string
	jsonOutput   bool
	saveDataDir  string
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Find the best offset of a template inside a reference image",
	Long: `Runs an exhaustive search of the template over every offset of the
reference image and prints the best offset and its score.

Single-channel strategies accept color images and reduce them to gray first.`,
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().StringVar(&refPath, "ref", "", "Reference image path (required)")
	matchCmd.Flags().StringVar(&tplPath, "tpl", "", "Template image path (required)")
	matchCmd.Flags().StringVarP(&strategyName, "strategy", "s", match.GraySAD.String(), "Strategy: gray-sad, color-sad, corr, angle, mag, hist")
	matchCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Parallel row bands (0 = serial, -1 = all CPUs)")
	matchCmd.Flags().BoolVar(&sliding, "sliding", false, "Use the sliding histogram for the hist strategy")
	matchCmd.Flags().StringVar(&overlayPath, "overlay", "", "Write a PNG of the reference with the match outlined")
	matchCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	matchCmd.Flags().StringVar(&saveDataDir, "save", "", "Persist the result in this data directory")

	matchCmd.MarkFlagRequired("ref")
	matchCmd.MarkFlagRequired("tpl")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	strategy, err := match.ParseStrategy(strategyName)
	if err != nil {
		return err
	}

	load := imageio.LoadGray
	if strategy.Channels() == 3 {
		load = imageio.LoadBGR
	}
	ref, err := load(refPath)
	if err != nil {
		return fmt.Errorf("failed to load reference: %w", err)
	}
	tpl, err := load(tplPath)
	if err != nil {
		return fmt.Errorf("failed to load template: %w", err)
	}

	slog.Info("Starting match",
		"strategy", strategy,
		"ref", fmt.Sprintf("%dx%d", ref.Width, ref.Height),
		"tpl", fmt.Sprintf("%dx%d", tpl.Width, tpl.Height),
		"workers", workers,
	)

	opts := match.Options{Workers: workers, SlidingHistogram: sliding}
	start := time.Now()
	result, err := match.Search(cmd.Context(), strategy, ref, tpl, opts)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	slog.Info("Match complete", "x", result.X, "y", result.Y, "score", result.Score, "elapsed", elapsed)

	if overlayPath != "" {
		if err := writeOverlay(overlayPath, ref, tpl, result); err != nil {
			return err
		}
	}

	if saveDataDir != "" {
		jobID, err := saveMatch(saveDataDir, strategy, ref, tpl, result, elapsed)
		if err != nil {
			return err
		}
		slog.Info("Result saved", "job_id", jobID, "data_dir", saveDataDir)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(out, "Best offset: (%d, %d)\n", result.X, result.Y)
	fmt.Fprintf(out, "Strategy:    %s\n", result.Strategy)
	fmt.Fprintf(out, "Score:       %g\n", result.Score)
	fmt.Fprintf(out, "Candidates:  %d\n", result.Candidates)
	fmt.Fprintf(out, "Elapsed:     %s\n", elapsed.Round(time.Microsecond))
	return nil
}

func writeOverlay(path string, ref, tpl *pixbuf.Buffer, result match.Result) error {
	img, err := imageio.Overlay(ref, result.X, result.Y, tpl.Width, tpl.Height, color.NRGBA{R: 255, A: 255})
	if err != nil {
		return fmt.Errorf("failed to render overlay: %w", err)
	}
	if err := imageio.SavePNG(path, img); err != nil {
		return err
	}
	slog.Info("Overlay written", "path", path)
	return nil
}

func saveMatch(dataDir string, strategy match.Strategy, ref, tpl *pixbuf.Buffer, result match.Result, elapsed time.Duration) (string, error) {
	resultStore, err := store.NewFSStore(dataDir)
	if err != nil {
		return "", fmt.Errorf("failed to create result store: %w", err)
	}

	jobID := uuid.New().String()
	config := store.JobConfig{
		ReferencePath:    refPath,
		TemplatePath:     tplPath,
		Strategy:         strategy,
		Workers:          workers,
		SlidingHistogram: sliding,
	}
	record := store.NewRecord(jobID, config, result,
		store.Size{Width: ref.Width, Height: ref.Height},
		store.Size{Width: tpl.Width, Height: tpl.Height},
		elapsed,
	)
	if err := resultStore.SaveResult(jobID, record); err != nil {
		return "", err
	}
	return jobID, nil
}
