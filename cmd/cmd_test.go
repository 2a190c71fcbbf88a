// -- cmd/cmd_test.go --
package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/atesim/internal/report"
)

// execute runs a fresh command tree in an isolated working directory and
// returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	rootCmd := NewRootCommand()
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}

func TestRunCommandBothDesigns(t *testing.T) {
	out, err := execute(t, "run",
		"--n", "80", "--ntreat", "40", "--reps", "60",
		"--seed", "7", "--redraw-seed", "8",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "fixed")
	assert.Contains(t, out, "redraw")
	assert.Contains(t, out, "Coverage")
}

func TestRunCommandSingleDesign(t *testing.T) {
	out, err := execute(t, "run", "--design", "fixed",
		"--n", "80", "--ntreat", "40", "--reps", "40",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "fixed")
	assert.NotContains(t, out, "redraw")
}

func TestRunCommandRejectsInvalidParams(t *testing.T) {
	_, err := execute(t, "run", "--n", "10", "--ntreat", "10", "--reps", "5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sim.ntreat")
}

func TestRunCommandRejectsUnknownDesign(t *testing.T) {
	_, err := execute(t, "run", "--design", "adaptive")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sim.design")
}

func TestRunCommandWritesJSONReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	_, err := execute(t, "run", "--design", "redraw",
		"--n", "60", "--ntreat", "30", "--reps", "40",
		"--output", path,
	)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var rep report.Report
	require.NoError(t, json.Unmarshal(data, &rep))
	require.Len(t, rep.Experiments, 1)
	assert.Equal(t, "redraw", rep.Experiments[0].Design)
	assert.Equal(t, 60, rep.Experiments[0].N)
}

func TestRunCommandReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "atesim.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
sim:
  design: fixed
  n: 50
  ntreat: 20
  reps: 30
`), 0o644))

	out, err := execute(t, "--config", cfgPath, "run")
	require.NoError(t, err)
	assert.Contains(t, out, "fixed")
	assert.Contains(t, out, "50")
}
