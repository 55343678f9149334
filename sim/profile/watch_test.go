package profile

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsValidRewrites(t *testing.T) {
	// GIVEN a watched profile file with one persona
	path := filepath.Join(t.TempDir(), "persona_profiles.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"user_a": {"preferred_genres": [], "pref_energy": 0.5, "pref_vocal": 0.5}}`), 0644))

	var mu sync.Mutex
	var seen [][]FleetEntry
	w, err := NewWatcher(path, func(entries []FleetEntry) {
		mu.Lock()
		seen = append(seen, entries)
		mu.Unlock()
	})
	require.NoError(t, err)
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// WHEN it is rewritten first with garbage, then with two personas
	require.NoError(t, os.WriteFile(path, []byte(`{"user_a": 1}`), 0644))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`{
		"user_a": {"preferred_genres": [], "pref_energy": 0.5, "pref_vocal": 0.5},
		"user_b": {"preferred_genres": ["ambient"], "pref_energy": 0.1, "pref_vocal": 0.1}
	}`), 0644))

	// THEN only valid content reaches the callback, ending with both personas
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0 && len(seen[len(seen)-1]) == 2
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	for _, entries := range seen {
		assert.NotEmpty(t, entries)
	}
	assert.Equal(t, TaskSleep, seen[len(seen)-1][1].Task)
}

func TestNewWatcher_MissingDirectory(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "nope", "p.json"), func([]FleetEntry) {})
	assert.Error(t, err)
}
