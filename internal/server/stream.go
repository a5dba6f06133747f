package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cwbudde/subimgmatch/internal/match"
)

const (
	// subscriberBuffer is how many events a slow SSE client may lag behind
	// before updates to it are dropped.
	subscriberBuffer = 10
	keepAlive        = 30 * time.Second
)

// ProgressEvent is one snapshot of a job pushed to SSE clients. Result is set
// once the job has completed. Seq increases with every broadcast for a job.
type ProgressEvent struct {
	Seq       uint64        `json:"seq"`
	JobID     string        `json:"jobId"`
	State     JobState      `json:"state"`
	RowsDone  int           `json:"rowsDone"`
	RowsTotal int           `json:"rowsTotal"`
	Result    *match.Result `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

func eventFromJob(job *Job) ProgressEvent {
	return ProgressEvent{
		JobID:     job.ID,
		State:     job.State,
		RowsDone:  job.RowsDone,
		RowsTotal: job.RowsTotal,
		Result:    job.Result,
		Error:     job.Error,
		Timestamp: time.Now(),
	}
}

// name is the SSE event type: "done" for terminal states, else "progress".
func (e ProgressEvent) name() string {
	if e.State.Terminal() {
		return "done"
	}
	return "progress"
}

// feed holds the subscribers of one job and the newest event, which is
// replayed to clients that connect late.
type feed struct {
	subs map[chan ProgressEvent]struct{}
	last *ProgressEvent
	seq  uint64
}

// EventBroadcaster fans job events out to SSE subscribers.
type EventBroadcaster struct {
	mu    sync.Mutex
	feeds map[string]*feed
}

func NewEventBroadcaster() *EventBroadcaster {
	return &EventBroadcaster{feeds: make(map[string]*feed)}
}

// feedFor returns the feed of jobID, creating it. Callers hold eb.mu.
func (eb *EventBroadcaster) feedFor(jobID string) *feed {
	f, ok := eb.feeds[jobID]
	if !ok {
		f = &feed{subs: make(map[chan ProgressEvent]struct{})}
		eb.feeds[jobID] = f
	}
	return f
}

// Subscribe registers a client for jobID. The newest event, if any, is
// queued on the returned channel right away.
func (eb *EventBroadcaster) Subscribe(jobID string) chan ProgressEvent {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	f := eb.feedFor(jobID)
	ch := make(chan ProgressEvent, subscriberBuffer)
	f.subs[ch] = struct{}{}
	if f.last != nil {
		ch <- *f.last
	}

	slog.Debug("SSE client subscribed", "job_id", jobID, "clients", len(f.subs))
	return ch
}

// Unsubscribe detaches ch. It is a no-op if CleanupJob already closed it.
func (eb *EventBroadcaster) Unsubscribe(jobID string, ch chan ProgressEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	f, ok := eb.feeds[jobID]
	if !ok {
		return
	}
	if _, ok := f.subs[ch]; !ok {
		return
	}
	delete(f.subs, ch)
	close(ch)
	slog.Debug("SSE client unsubscribed", "job_id", jobID, "clients", len(f.subs))
}

// Broadcast stamps event with the next sequence number and delivers it to
// every subscriber whose buffer has room.
func (eb *EventBroadcaster) Broadcast(event ProgressEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	f := eb.feedFor(event.JobID)
	f.seq++
	event.Seq = f.seq
	f.last = &event

	dropped := 0
	for ch := range f.subs {
		select {
		case ch <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		slog.Warn("SSE clients lagging, event dropped", "job_id", event.JobID, "seq", event.Seq, "dropped", dropped)
	}
}

// CleanupJob closes every subscriber of jobID and forgets its last event.
func (eb *EventBroadcaster) CleanupJob(jobID string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	f, ok := eb.feeds[jobID]
	if !ok {
		return
	}
	for ch := range f.subs {
		close(ch)
	}
	delete(eb.feeds, jobID)
	slog.Debug("SSE feed removed", "job_id", jobID)
}

// handleJobStream handles GET /api/v1/jobs/:id/stream. The stream ends after
// the first terminal event.
func (s *Server) handleJobStream(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")

	send := func(event ProgressEvent) bool {
		if err := writeSSEEvent(w, event); err != nil {
			slog.Error("Failed to write SSE event", "job_id", jobID, "error", err)
			return false
		}
		flusher.Flush()
		return !event.State.Terminal()
	}

	events := s.jobManager.broadcaster.Subscribe(jobID)
	defer s.jobManager.broadcaster.Unsubscribe(jobID, events)

	// The snapshot may be newer than the replayed event; start from it.
	if !send(eventFromJob(job)) {
		return
	}

	ping := time.NewTicker(keepAlive)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			slog.Debug("SSE client disconnected", "job_id", jobID)
			return
		case event, ok := <-events:
			if !ok || !send(event) {
				return
			}
		case <-ping.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

// writeSSEEvent writes one event frame: id, event name and JSON data.
func writeSSEEvent(w http.ResponseWriter, event ProgressEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if event.Seq > 0 {
		if _, err := fmt.Fprintf(w, "id: %d\n", event.Seq); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.name(), data)
	return err
}
