package trace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nara-t/nara-sim/sim"
)

func tracePaths(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "run.yaml"), filepath.Join(dir, "run.csv")
}

func sampleRecords() []*sim.RequestRecord {
	return []*sim.RequestRecord{
		{
			Index:        0,
			Persona:      sim.Persona{ID: "user_omar_runner", Activity: sim.ActivityWorkout, HourOfDay: 19, Device: "mobile"},
			SessionID:    "s-0",
			LatencyMs:    42.5,
			RoundTripMs:  50.25,
			HTTPStatus:   200,
			Status:       sim.StatusOK,
			ChosenItemID: 104,
			ChosenArtist: "Midnight Oud",
			Reward:       0.8125,
		},
		{
			Index:        1,
			Persona:      sim.Persona{ID: "user_sim_07", Activity: sim.ActivityFocus, HourOfDay: 3, Device: "desktop"},
			SessionID:    "s-1",
			RoundTripMs:  12,
			HTTPStatus:   500,
			Status:       sim.StatusError,
			ErrorMessage: "HTTP 500: boom, again",
		},
	}
}

func TestWriter_RoundTrip_PreservesRows(t *testing.T) {
	// GIVEN a writer fed two records
	headerPath, dataPath := tracePaths(t)
	header := Header{Endpoint: "http://localhost:8000", Seed: 42, FleetSize: 50, SampleSize: 15, DelayMs: 200, NumResults: 4}
	w, err := NewWriter(headerPath, dataPath, header)
	require.NoError(t, err)
	for _, rec := range sampleRecords() {
		w.Observe(rec)
	}
	assert.Equal(t, 2, w.Rows())
	require.NoError(t, w.Close())

	// WHEN loaded back
	tr, err := Load(headerPath, dataPath)
	require.NoError(t, err)

	// THEN the header and every row survive
	assert.Equal(t, Version, tr.Header.Version)
	assert.NotEmpty(t, tr.Header.CreatedAt)
	assert.Equal(t, "http://localhost:8000", tr.Header.Endpoint)
	assert.Equal(t, int64(42), tr.Header.Seed)

	want := []Row{RowFromRecord(sampleRecords()[0]), RowFromRecord(sampleRecords()[1])}
	if diff := cmp.Diff(want, tr.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestWriter_FlushesEachRow(t *testing.T) {
	// GIVEN a writer that has not been closed yet
	headerPath, dataPath := tracePaths(t)
	w, err := NewWriter(headerPath, dataPath, Header{})
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	// WHEN one record is observed
	w.Observe(sampleRecords()[0])

	// THEN the row is already on disk
	data, err := os.ReadFile(dataPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "0,user_omar_runner,s-0,workout,19,mobile,ok,200,104,Midnight Oud,"), lines[1])
}

func TestWriter_UnwritablePath_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	_, err := NewWriter(filepath.Join(dir, "missing", "h.yaml"), filepath.Join(dir, "d.csv"), Header{})
	assert.Error(t, err)
}

func TestLoad_RejectsShortRows(t *testing.T) {
	headerPath, dataPath := tracePaths(t)
	require.NoError(t, os.WriteFile(headerPath, []byte("trace_version: 1\n"), 0644))
	require.NoError(t, os.WriteFile(dataPath, []byte(strings.Join(columns, ",")+"\n0,user_a,s\n"), 0644))

	_, err := Load(headerPath, dataPath)
	assert.Error(t, err)
}

func TestLoad_RejectsCorruptNumbers(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"hour", "0,user_a,s,focus,late,mobile,ok,200,101,A,0.7,12,12,"},
		{"http status", "0,user_a,s,focus,9,mobile,ok,OK,101,A,0.7,12,12,"},
		{"item id", "0,user_a,s,focus,9,mobile,ok,200,x101,A,0.7,12,12,"},
		{"reward", "0,user_a,s,focus,9,mobile,ok,200,101,A,high,12,12,"},
		{"latency", "0,user_a,s,focus,9,mobile,ok,200,101,A,0.7,,12,"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headerPath, dataPath := tracePaths(t)
			require.NoError(t, os.WriteFile(headerPath, []byte("trace_version: 1\n"), 0644))
			require.NoError(t, os.WriteFile(dataPath, []byte(strings.Join(columns, ",")+"\n"+tt.row+"\n"), 0644))

			_, err := Load(headerPath, dataPath)
			assert.Error(t, err)
		})
	}
}

func TestWriter_RoundTrip_KeepsErrorMessageVerbatim(t *testing.T) {
	headerPath, dataPath := tracePaths(t)
	w, err := NewWriter(headerPath, dataPath, Header{})
	require.NoError(t, err)
	rec := &sim.RequestRecord{
		Persona:      sim.Persona{ID: "user_a"},
		Status:       sim.StatusError,
		HTTPStatus:   502,
		ErrorMessage: "HTTP 502:  upstream, down \n",
	}
	w.Observe(rec)
	require.NoError(t, w.Close())

	tr, err := Load(headerPath, dataPath)
	require.NoError(t, err)
	require.Len(t, tr.Rows, 1)
	assert.Equal(t, rec.ErrorMessage, tr.Rows[0].ErrorMessage)
}

func TestLoad_RejectsNewerVersion(t *testing.T) {
	headerPath, dataPath := tracePaths(t)
	require.NoError(t, os.WriteFile(headerPath, []byte("trace_version: 99\n"), 0644))
	require.NoError(t, os.WriteFile(dataPath, []byte(strings.Join(columns, ",")+"\n"), 0644))

	_, err := Load(headerPath, dataPath)
	assert.ErrorContains(t, err, "unsupported trace version")
}

func TestLoad_MissingFiles(t *testing.T) {
	headerPath, dataPath := tracePaths(t)
	_, err := Load(headerPath, dataPath)
	assert.Error(t, err)
}
