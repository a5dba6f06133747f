package server

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/cwbudde/subimgmatch/internal/imageio"
	"github.com/cwbudde/subimgmatch/internal/match"
	"github.com/cwbudde/subimgmatch/internal/pixbuf"
	"github.com/cwbudde/subimgmatch/internal/store"
)

// overlayColor outlines the matched window in overlay.png.
var overlayColor = color.NRGBA{R: 255, A: 255}

// progressInterval throttles SSE progress events to 2 updates per second.
const progressInterval = 500 * time.Millisecond

// runJob executes a match job. If resultStore is not nil, the finished
// record, a scan trace and an overlay image are persisted under the job's
// directory.
func runJob(ctx context.Context, jm *JobManager, resultStore store.Store, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	})
	if err != nil {
		return err
	}

	cfg := job.Config
	slog.Info("Starting job", "job_id", jobID, "strategy", cfg.Strategy, "ref", cfg.ReferencePath, "tpl", cfg.TemplatePath)

	ref, tpl, err := loadInputs(cfg)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	rows := ref.Height - tpl.Height + 1
	jm.UpdateJob(jobID, func(j *Job) {
		if rows > 0 {
			j.RowsTotal = rows
		}
	})

	slog.Info("Loaded inputs", "job_id", jobID,
		"ref_width", ref.Width, "ref_height", ref.Height,
		"tpl_width", tpl.Width, "tpl_height", tpl.Height,
	)

	var trace *store.TraceWriter
	if resultStore != nil {
		trace, err = openTrace(resultStore, jobID)
		if err != nil {
			slog.Warn("Failed to open scan trace", "job_id", jobID, "error", err)
			trace = nil
		}
	}

	opts := match.Options{
		Workers:          cfg.Workers,
		SlidingHistogram: cfg.SlidingHistogram,
		Progress: func(done, total int) {
			jm.UpdateJob(jobID, func(j *Job) {
				if done > j.RowsDone {
					j.RowsDone = done
				}
			})
			if trace != nil {
				if err := trace.Write(store.TraceEntry{RowsDone: done, RowsTotal: total, Timestamp: time.Now()}); err != nil {
					slog.Warn("Failed to write trace entry", "job_id", jobID, "error", err)
				}
			}
		},
	}

	progressDone := make(chan struct{})
	go monitorProgress(ctx, jm, jobID, progressDone)

	start := time.Now()
	result, err := match.Search(ctx, cfg.Strategy, ref, tpl, opts)
	close(progressDone)
	elapsed := time.Since(start)

	if trace != nil {
		if cerr := trace.Close(); cerr != nil {
			slog.Warn("Failed to close scan trace", "job_id", jobID, "error", cerr)
		}
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			markJobCancelled(jm, jobID)
			return err
		}
		markJobFailed(jm, jobID, err)
		return err
	}

	// Artifacts must be on disk before clients can observe completion.
	if resultStore != nil {
		if err := saveResult(resultStore, jobID, cfg, result, ref, tpl, elapsed); err != nil {
			slog.Error("Failed to save result", "job_id", jobID, "error", err)
		}
	}

	endTime := time.Now()
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.Result = &result
		j.RowsDone = rows
		j.EndTime = &endTime
	})
	if err != nil {
		return err
	}

	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", elapsed,
		"x", result.X,
		"y", result.Y,
		"score", result.Score,
		"candidates", result.Candidates,
	)

	if job, ok := jm.GetJob(jobID); ok {
		jm.broadcaster.Broadcast(eventFromJob(job))
	}
	return nil
}

// loadInputs decodes both images in the layout the strategy needs.
// Single-channel strategies accept color files and convert them to gray.
func loadInputs(cfg JobConfig) (ref, tpl *pixbuf.Buffer, err error) {
	load := imageio.LoadGray
	if cfg.Strategy.Channels() == 3 {
		load = imageio.LoadBGR
	}

	ref, err = load(cfg.ReferencePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load reference: %w", err)
	}
	tpl, err = load(cfg.TemplatePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load template: %w", err)
	}
	return ref, tpl, nil
}

func openTrace(resultStore store.Store, jobID string) (*store.TraceWriter, error) {
	dir, err := resultStore.JobDir(jobID)
	if err != nil {
		return nil, err
	}
	return store.NewTraceWriter(dir, false)
}

// saveResult persists the record and writes overlay.png next to it.
func saveResult(resultStore store.Store, jobID string, cfg JobConfig, result match.Result, ref, tpl *pixbuf.Buffer, elapsed time.Duration) error {
	record := store.NewRecord(jobID, cfg, result,
		store.Size{Width: ref.Width, Height: ref.Height},
		store.Size{Width: tpl.Width, Height: tpl.Height},
		elapsed,
	)
	if err := resultStore.SaveResult(jobID, record); err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}

	overlay, err := imageio.Overlay(ref, result.X, result.Y, tpl.Width, tpl.Height, overlayColor)
	if err != nil {
		slog.Warn("Failed to render overlay", "job_id", jobID, "error", err)
		return nil
	}
	dir, err := resultStore.JobDir(jobID)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, "overlay.png")
	if err := imageio.SavePNG(path, overlay); err != nil {
		slog.Warn("Failed to save overlay", "job_id", jobID, "error", err)
		return nil
	}

	slog.Debug("Result artifacts saved", "job_id", jobID, "overlay_path", path)
	return nil
}

// monitorProgress periodically broadcasts progress events during the scan
func monitorProgress(ctx context.Context, jm *JobManager, jobID string, done chan struct{}) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, exists := jm.GetJob(jobID)
			if !exists {
				return
			}
			jm.broadcaster.Broadcast(eventFromJob(job))
		}
	}
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	slog.Error("Job failed", "job_id", jobID, "error", err)

	if job, ok := jm.GetJob(jobID); ok {
		jm.broadcaster.Broadcast(eventFromJob(job))
	}
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	slog.Info("Job cancelled", "job_id", jobID)

	if job, ok := jm.GetJob(jobID); ok {
		jm.broadcaster.Broadcast(eventFromJob(job))
	}
}
