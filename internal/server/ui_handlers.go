package server

import (
	"net/http"

	"github.com/cwbudde/subimgmatch/internal/ui"
)

// handleIndex handles GET /
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	// Only handle exact root path
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	jobs := s.jobManager.ListJobs()

	// Convert to UI job list items
	jobItems := make([]ui.JobListItem, len(jobs))
	for i, job := range jobs {
		item := ui.JobListItem{
			ID:        job.ID,
			State:     string(job.State),
			Strategy:  job.Config.Strategy.String(),
			RefPath:   job.Config.ReferencePath,
			TplPath:   job.Config.TemplatePath,
			RowsDone:  job.RowsDone,
			RowsTotal: job.RowsTotal,
			StartTime: job.StartTime,
			EndTime:   job.EndTime,
			Error:     job.Error,
		}
		if job.Result != nil {
			item.HasResult = true
			item.X, item.Y, item.Score = job.Result.X, job.Result.Y, job.Result.Score
		}
		jobItems[i] = item
	}

	if err := ui.JobList(jobItems).Render(r.Context(), w); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
}
