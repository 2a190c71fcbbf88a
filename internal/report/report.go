// File: internal/report/report.go

// Package report assembles experiment summaries into the console table and
// optional JSON artifact the CLI emits.
package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/atesim/internal/experiment"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Report collects the summaries of one CLI invocation.
type Report struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Experiments []Entry   `json:"experiments"`
}

// Entry is one experiment's configuration and summary, flattened for
// serialization.
type Entry struct {
	Design       string  `json:"design"`
	N            int     `json:"n"`
	NTreat       int     `json:"ntreat"`
	Reps         int     `json:"reps"`
	Seed         int64   `json:"seed"`
	Tau0         float64 `json:"tau0"`
	Workers      int     `json:"workers,omitempty"`
	Target       float64 `json:"target"`
	MeanB        float64 `json:"mean_b"`
	VarB         float64 `json:"var_b"`
	MeanVhat     float64 `json:"mean_vhat"`
	CoverageRate float64 `json:"coverage_rate"`
	Anomalies    int     `json:"anomalies,omitempty"`
}

// New returns an empty report with a fresh run ID.
func New() *Report {
	return &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
	}
}

// Add appends one experiment's outcome.
func (r *Report) Add(cfg experiment.Config, s experiment.Summary) {
	r.Experiments = append(r.Experiments, Entry{
		Design:       cfg.Design.String(),
		N:            cfg.N,
		NTreat:       cfg.NTreat,
		Reps:         cfg.Reps,
		Seed:         cfg.Seed,
		Tau0:         cfg.Tau0,
		Workers:      cfg.Workers,
		Target:       s.Target,
		MeanB:        s.MeanB,
		VarB:         s.VarB,
		MeanVhat:     s.MeanVhat,
		CoverageRate: s.CoverageRate,
		Anomalies:    s.Anomalies,
	})
}

// RenderTable writes the fixed-width console table.
func (r *Report) RenderTable(w io.Writer) {
	fmt.Fprintf(w, "Run %s\n\n", r.RunID)
	fmt.Fprintf(w, "%-8s | %-6s | %-7s | %-6s | %-10s | %-10s | %-10s | %-10s | %s\n",
		"Design", "N", "Ntreat", "Reps", "Target", "Mean b", "Var b", "Mean vhat", "Coverage")
	fmt.Fprintln(w, "--------------------------------------------------------------------------------------------")
	for _, e := range r.Experiments {
		fmt.Fprintf(w, "%-8s | %-6d | %-7d | %-6d | %-10.5f | %-10.5f | %-10.6f | %-10.6f | %.4f\n",
			e.Design, e.N, e.NTreat, e.Reps, e.Target, e.MeanB, e.VarB, e.MeanVhat, e.CoverageRate)
		if e.Anomalies > 0 {
			fmt.Fprintf(w, "  warning: %d repetition(s) produced non-finite estimates and were excluded\n", e.Anomalies)
		}
	}
}

// WriteJSON writes the report to path as indented JSON.
func (r *Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	return nil
}
