// File: internal/report/report_test.go
package report

import (
	"bytes"
	encjson "encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/atesim/internal/experiment"
)

func sampleEntry() (experiment.Config, experiment.Summary) {
	cfg := experiment.Config{
		Design: experiment.Fixed,
		N:      1000,
		NTreat: 500,
		Reps:   800,
		Seed:   12345,
		Tau0:   0.2,
	}
	summary := experiment.Summary{
		Design:       experiment.Fixed,
		Target:       0.19523,
		MeanB:        0.19488,
		VarB:         0.00301,
		MeanVhat:     0.00299,
		CoverageRate: 0.9475,
		Reps:         800,
	}
	return cfg, summary
}

func TestNewAssignsRunID(t *testing.T) {
	r := New()
	_, err := uuid.Parse(r.RunID)
	assert.NoError(t, err, "run ID should be a valid UUID")
	assert.False(t, r.GeneratedAt.IsZero())
}

func TestRenderTable(t *testing.T) {
	r := New()
	r.Add(sampleEntry())

	var buf bytes.Buffer
	r.RenderTable(&buf)
	out := buf.String()

	assert.Contains(t, out, r.RunID)
	assert.Contains(t, out, "fixed")
	assert.Contains(t, out, "0.9475")
	assert.Contains(t, out, "Coverage")
	assert.NotContains(t, out, "warning:")
}

func TestRenderTableFlagsAnomalies(t *testing.T) {
	r := New()
	cfg, summary := sampleEntry()
	summary.Anomalies = 3
	r.Add(cfg, summary)

	var buf bytes.Buffer
	r.RenderTable(&buf)
	assert.Contains(t, buf.String(), "3 repetition(s) produced non-finite estimates")
}

func TestWriteJSONRoundTrip(t *testing.T) {
	r := New()
	r.Add(sampleEntry())

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, r.WriteJSON(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, encjson.Unmarshal(data, &decoded))

	assert.Equal(t, r.RunID, decoded.RunID)
	require.Len(t, decoded.Experiments, 1)
	e := decoded.Experiments[0]
	assert.Equal(t, "fixed", e.Design)
	assert.Equal(t, 1000, e.N)
	assert.Equal(t, int64(12345), e.Seed)
	assert.InDelta(t, 0.9475, e.CoverageRate, 1e-12)
}

func TestWriteJSONBadPath(t *testing.T) {
	r := New()
	err := r.WriteJSON(filepath.Join(t.TempDir(), "missing", "report.json"))
	require.Error(t, err)
}
