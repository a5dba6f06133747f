package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string
)

// jobStatus mirrors the job status document served by the job server.
type jobStatus struct {
	ID     string `json:"id"`
	State  string `json:"state"`
	Config struct {
		ReferencePath string `json:"referencePath"`
		TemplatePath  string `json:"templatePath"`
		Strategy      string `json:"strategy"`
		Workers       int    `json:"workers"`
	} `json:"config"`
	Result *struct {
		X          int     `json:"x"`
		Y          int     `json:"y"`
		Score      float64 `json:"score"`
		Candidates int     `json:"candidates"`
	} `json:"result"`
	RowsDone  int     `json:"rowsDone"`
	RowsTotal int     `json:"rowsTotal"`
	Elapsed   float64 `json:"elapsed"`
	Error     string  `json:"error"`
}

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Query server status or specific job",
	Long: `Queries the server for job status information.
If no job-id is provided, lists all jobs.
If job-id is provided, shows detailed status for that job.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		return listJobs(out, fmt.Sprintf("%s/api/v1/jobs", serverURL))
	}
	jobID := args[0]
	return getJobStatus(out, fmt.Sprintf("%s/api/v1/jobs/%s/status", serverURL, jobID), jobID)
}

func fetchJSON(url string, v any) (int, error) {
	resp, err := http.Get(url)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, fmt.Errorf("server returned error: %s", string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func listJobs(out io.Writer, url string) error {
	var jobs []jobStatus
	if _, err := fetchJSON(url, &jobs); err != nil {
		return err
	}

	if len(jobs) == 0 {
		fmt.Fprintln(out, "No jobs found")
		return nil
	}

	fmt.Fprintf(out, "Found %d job(s):\n\n", len(jobs))
	for _, job := range jobs {
		fmt.Fprintf(out, "Job ID: %s\n", job.ID)
		fmt.Fprintf(out, "  State: %s\n", job.State)
		fmt.Fprintf(out, "  Strategy: %s\n", job.Config.Strategy)
		if job.Result != nil {
			fmt.Fprintf(out, "  Match: (%d, %d) score %g\n", job.Result.X, job.Result.Y, job.Result.Score)
		}
		fmt.Fprintln(out)
	}

	return nil
}

func getJobStatus(out io.Writer, url, jobID string) error {
	var status jobStatus
	code, err := fetchJSON(url, &status)
	if code == http.StatusNotFound {
		return fmt.Errorf("job not found: %s", jobID)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Job: %s\n", status.ID)
	fmt.Fprintf(out, "State: %s\n", status.State)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintf(out, "  Reference: %s\n", status.Config.ReferencePath)
	fmt.Fprintf(out, "  Template: %s\n", status.Config.TemplatePath)
	fmt.Fprintf(out, "  Strategy: %s\n", status.Config.Strategy)
	fmt.Fprintf(out, "  Workers: %d\n", status.Config.Workers)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Progress:")
	if status.RowsTotal > 0 {
		pct := float64(status.RowsDone) / float64(status.RowsTotal) * 100
		fmt.Fprintf(out, "  Rows: %d/%d (%.1f%%)\n", status.RowsDone, status.RowsTotal, pct)
	}
	elapsed := time.Duration(status.Elapsed * float64(time.Second))
	fmt.Fprintf(out, "  Elapsed: %s\n", elapsed.Round(time.Millisecond))

	if status.Result != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Result:")
		fmt.Fprintf(out, "  Offset: (%d, %d)\n", status.Result.X, status.Result.Y)
		fmt.Fprintf(out, "  Score: %g\n", status.Result.Score)
		fmt.Fprintf(out, "  Candidates: %d\n", status.Result.Candidates)
	}

	if status.Error != "" {
		fmt.Fprintf(out, "\nError: %s\n", status.Error)
	}

	return nil
}
