// Package ui renders the HTML pages served by the job server.
package ui

import (
	"fmt"
	"time"
)

// JobListItem is one row of the job list page.
type JobListItem struct {
	ID        string
	State     string
	Strategy  string
	RefPath   string
	TplPath   string
	RowsDone  int
	RowsTotal int
	HasResult bool
	X, Y      int
	Score     float64
	StartTime time.Time
	EndTime   *time.Time
	Error     string
}

// Progress is the finished fraction of the scan in percent.
func (j JobListItem) Progress() int {
	if j.RowsTotal == 0 {
		return 0
	}
	return j.RowsDone * 100 / j.RowsTotal
}

// Duration is the run time so far, or the total once finished.
func (j JobListItem) Duration() time.Duration {
	end := time.Now()
	if j.EndTime != nil {
		end = *j.EndTime
	}
	return end.Sub(j.StartTime).Round(time.Millisecond)
}

// Offset formats the matched position as "(x, y)".
func (j JobListItem) Offset() string {
	return fmt.Sprintf("(%d, %d)", j.X, j.Y)
}
