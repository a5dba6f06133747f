package server

import (
	"context"
	"testing"
	"time"

	"github.com/cwbudde/subimgmatch/internal/match"
)

func TestJobManager_CreateJob(t *testing.T) {
	jm := NewJobManager()

	config := JobConfig{
		ReferencePath: "ref.png",
		TemplatePath:  "tpl.png",
		Strategy:      match.Correlation,
		Workers:       2,
	}

	job := jm.CreateJob(config)

	if job.ID == "" {
		t.Error("Job ID should not be empty")
	}

	if job.State != StatePending {
		t.Errorf("Initial state should be pending, got %s", job.State)
	}

	if job.Config != config {
		t.Errorf("Config not set correctly: %+v", job.Config)
	}
}

func TestJobManager_GetJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(JobConfig{ReferencePath: "ref.png", TemplatePath: "tpl.png"})

	retrieved, exists := jm.GetJob(job.ID)
	if !exists {
		t.Fatal("Job should exist")
	}

	if retrieved.ID != job.ID {
		t.Error("Retrieved wrong job")
	}

	_, exists = jm.GetJob("nonexistent")
	if exists {
		t.Error("Should not find nonexistent job")
	}
}

func TestJobManager_GetJobReturnsSnapshot(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(JobConfig{ReferencePath: "ref.png", TemplatePath: "tpl.png"})

	jm.UpdateJob(job.ID, func(j *Job) {
		j.Result = &match.Result{X: 1, Y: 2}
	})

	snapshot, _ := jm.GetJob(job.ID)
	snapshot.State = StateFailed
	snapshot.Result.X = 99

	current, _ := jm.GetJob(job.ID)
	if current.State != StatePending {
		t.Errorf("Snapshot mutation leaked into state: %s", current.State)
	}
	if current.Result.X != 1 {
		t.Errorf("Snapshot mutation leaked into result: %d", current.Result.X)
	}
}

func TestJobManager_ListJobs(t *testing.T) {
	jm := NewJobManager()

	if len(jm.ListJobs()) != 0 {
		t.Error("Should start with no jobs")
	}

	first := jm.CreateJob(JobConfig{ReferencePath: "a.png"})
	time.Sleep(2 * time.Millisecond)
	second := jm.CreateJob(JobConfig{ReferencePath: "b.png"})

	jobs := jm.ListJobs()
	if len(jobs) != 2 {
		t.Fatalf("Expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != first.ID || jobs[1].ID != second.ID {
		t.Error("Jobs should be listed oldest first")
	}
}

func TestJobManager_UpdateJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(JobConfig{ReferencePath: "ref.png"})

	err := jm.UpdateJob(job.ID, func(j *Job) {
		j.State = StateRunning
		j.RowsDone = 10
		j.RowsTotal = 40
	})

	if err != nil {
		t.Errorf("Update should succeed: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateRunning {
		t.Error("State should be updated")
	}
	if updated.RowsDone != 10 || updated.RowsTotal != 40 {
		t.Errorf("Progress should be updated, got %d/%d", updated.RowsDone, updated.RowsTotal)
	}

	if running := jm.GetRunningJobs(); len(running) != 1 {
		t.Errorf("Expected 1 running job, got %d", len(running))
	}

	err = jm.UpdateJob("nonexistent", func(j *Job) {})
	if err == nil {
		t.Error("Update of nonexistent job should fail")
	}
}

func TestJobManager_CancelJob(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(JobConfig{ReferencePath: "ref.png"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	jm.UpdateJob(job.ID, func(j *Job) {
		j.cancel = cancel
	})

	if err := jm.CancelJob(job.ID); err != nil {
		t.Fatalf("CancelJob failed: %v", err)
	}
	if ctx.Err() == nil {
		t.Error("Job context should be cancelled")
	}

	jm.UpdateJob(job.ID, func(j *Job) {
		j.State = StateCancelled
	})
	if err := jm.CancelJob(job.ID); err == nil {
		t.Error("Cancelling a finished job should fail")
	}
	if err := jm.CancelJob("nonexistent"); err == nil {
		t.Error("Cancelling a nonexistent job should fail")
	}
}

func TestJobManager_RemoveJob(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(JobConfig{ReferencePath: "ref.png"})

	if err := jm.RemoveJob(job.ID); err == nil {
		t.Error("Removing a pending job should fail")
	}

	jm.UpdateJob(job.ID, func(j *Job) {
		j.State = StateCompleted
	})
	if err := jm.RemoveJob(job.ID); err != nil {
		t.Fatalf("RemoveJob failed: %v", err)
	}
	if _, exists := jm.GetJob(job.ID); exists {
		t.Error("Job should be gone after RemoveJob")
	}
}

func TestJobManager_ThreadSafety(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(JobConfig{ReferencePath: "ref.png"})

	// Simulate concurrent updates
	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(row int) {
			jm.UpdateJob(job.ID, func(j *Job) {
				j.RowsDone = row
				time.Sleep(1 * time.Millisecond)
			})
			jm.GetJob(job.ID)
			done <- true
		}(i)
	}

	// Wait for all updates
	for i := 0; i < 10; i++ {
		<-done
	}

	_, exists := jm.GetJob(job.ID)
	if !exists {
		t.Error("Job should still exist after concurrent updates")
	}
}
