package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ising-mc/internal/report"
	"ising-mc/internal/store"
)

var small = []string{
	"-set", "topology=ring",
	"-set", "extents=10",
	"-set", "temperatures=1,2",
	"-set", "equilibration=20",
	"-set", "sampling=200",
	"-set", "blocks=4",
	"-set", "log_level=error",
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := run(context.Background(), append(append([]string(nil), small...), args...), &out, &errOut)
	return out.String(), errOut.String(), err
}

func TestSweepWritesRecordsToStdout(t *testing.T) {
	out, _, err := runCLI(t, "-reference")
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"point", "temperature"}, rows[0][:2])
	assert.Equal(t, "reference_energy", rows[0][len(report.RecordHeader)])
	assert.Equal(t, "reference_magnetization", rows[0][len(rows[0])-1])
	assert.Equal(t, []string{"0", "1"}, rows[1][:2])
	assert.Equal(t, []string{"1", "2"}, rows[2][:2])
	for _, cell := range rows[2][len(report.RecordHeader):] {
		assert.NotEmpty(t, cell)
	}
}

func TestSweepWritesFilesAndDatabase(t *testing.T) {
	dir := t.TempDir()
	records := filepath.Join(dir, "out", "records.csv")
	snaps := filepath.Join(dir, "out", "snaps.jsonl.zst")
	db := filepath.Join(dir, "out", "index.db")
	text := filepath.Join(dir, "text")

	out, _, err := runCLI(t,
		"-set", "records="+records,
		"-set", "snapshot_file="+snaps,
		"-set", "database="+db,
		"-set", "snapshots=true",
		"-text-dir", text,
	)
	require.NoError(t, err)
	assert.Empty(t, out)

	b, err := os.ReadFile(records)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "point,temperature,field,anisotropy"))

	f, err := os.Open(snaps)
	require.NoError(t, err)
	defer f.Close()
	got, err := report.ReadSnapshots(f)
	require.NoError(t, err)
	assert.Len(t, got, 4)

	entries, err := os.ReadDir(text)
	require.NoError(t, err)
	assert.Len(t, entries, 4)

	s, err := store.Open(db)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "ring(10)", runs[0].Shape)
	recs, err := s.Records(context.Background(), runs[0].ID)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 0, recs[0].Point)
	assert.Equal(t, 1, recs[1].Point)
}

func TestHistogramMode(t *testing.T) {
	out, _, err := runCLI(t, "-mode", "histogram", "-set", "runs=3")
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"T=1 B=0 eps=1", "T=2 B=0 eps=1"}, rows[0])
}

func TestTraceModeWritesTextFrames(t *testing.T) {
	out, _, err := runCLI(t, "-mode", "trace", "-frames", "3")
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(out, "# T=1 "))
	assert.Contains(t, out, "stage=trace")
}

func TestDumpConfig(t *testing.T) {
	out, _, err := runCLI(t, "-dump-config")
	require.NoError(t, err)
	assert.Contains(t, out, "topology: ring")
}

func TestErrors(t *testing.T) {
	_, _, err := runCLI(t, "-mode", "anneal")
	assert.ErrorContains(t, err, "unknown mode")

	_, _, err = runCLI(t, "-set", "sampling=0")
	assert.ErrorContains(t, err, "sampling sweeps")

	_, _, err = runCLI(t, "-set", "bogus")
	assert.ErrorContains(t, err, "want key=value")

	_, _, err = runCLI(t, "-config", filepath.Join(t.TempDir(), "none.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
