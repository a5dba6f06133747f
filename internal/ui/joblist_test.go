package ui

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobListEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JobList(nil).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "No jobs yet.")
}

func TestJobListRows(t *testing.T) {
	start := time.Now().Add(-time.Second)
	end := start.Add(250 * time.Millisecond)
	jobs := []JobListItem{
		{ID: "a", State: "completed", Strategy: "gray-sad", RefPath: "ref.png", TplPath: "tpl.png",
			RowsDone: 10, RowsTotal: 10, HasResult: true, X: 13, Y: 7, Score: 0, StartTime: start, EndTime: &end},
		{ID: "b", State: "failed", Strategy: "hist", RefPath: "<script>", TplPath: "t.png",
			StartTime: start, EndTime: &end, Error: "bad & broken"},
	}

	var buf bytes.Buffer
	require.NoError(t, JobList(jobs).Render(context.Background(), &buf))
	out := buf.String()

	assert.Contains(t, out, `/api/v1/jobs/a/overlay.png">(13, 7)`)
	assert.Contains(t, out, "100%")
	assert.Contains(t, out, "250ms")
	assert.Contains(t, out, "bad &amp; broken")
	assert.Contains(t, out, `<td data-state="failed">failed</td>`)
	assert.Contains(t, out, "&lt;script&gt;")
	assert.False(t, strings.Contains(out, "<script>"), "paths must be escaped")
}

func TestJobListEscapesAttributes(t *testing.T) {
	jobs := []JobListItem{{ID: `x"><b>`, State: `run"ning`, StartTime: time.Now()}}

	var buf bytes.Buffer
	require.NoError(t, JobList(jobs).Render(context.Background(), &buf))
	out := buf.String()

	assert.NotContains(t, out, "<b>")
	assert.Contains(t, out, `data-state="run&#34;ning"`)
}

func TestJobListCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	assert.ErrorIs(t, JobList(nil).Render(ctx, &buf), context.Canceled)
}

func TestJobListItemOffset(t *testing.T) {
	assert.Equal(t, "(13, 7)", JobListItem{X: 13, Y: 7}.Offset())
}

func TestJobListItemProgress(t *testing.T) {
	assert.Equal(t, 0, JobListItem{}.Progress())
	assert.Equal(t, 50, JobListItem{RowsDone: 5, RowsTotal: 10}.Progress())
}
