package sim

import (
	"fmt"
	"math/rand"
)

const (
	// DefaultFleetSize is the number of personas in a fleet (curated + filler).
	DefaultFleetSize = 50

	// DefaultSampleSize is the number of personas dispatched per run.
	DefaultSampleSize = 15
)

// BuildFleet returns the curated personas followed by generated fillers up to size.
// Fillers cycle through the task/activity table and the device set; the hour of
// day is drawn from rng. A size below the curated count truncates the curated list.
// Deterministic given the same rng state.
func BuildFleet(rng *rand.Rand, size int) []Persona {
	if size <= 0 {
		return nil
	}
	curated := CuratedPersonas()
	if size <= len(curated) {
		return curated[:size]
	}

	fleet := make([]Persona, 0, size)
	fleet = append(fleet, curated...)
	for i := len(curated); i < size; i++ {
		n := i + 1
		ta := fillerProfiles[(i-len(curated))%len(fillerProfiles)]
		fleet = append(fleet, Persona{
			ID:          fmt.Sprintf("user_sim_%02d", n),
			DisplayName: fmt.Sprintf("Sim Listener %02d", n),
			Task:        ta.task,
			Activity:    ta.activity,
			HourOfDay:   rng.Intn(24),
			Device:      Devices[(i-len(curated))%len(Devices)],
		})
	}
	return fleet
}

// SampleFleet draws n personas without replacement using a partial Fisher–Yates
// shuffle over a copy of pool. The pool itself is never reordered.
// When n >= len(pool) the whole pool is returned in shuffled order.
func SampleFleet(pool []Persona, n int, rng *rand.Rand) []Persona {
	if n <= 0 || len(pool) == 0 {
		return nil
	}
	shuffled := make([]Persona, len(pool))
	copy(shuffled, pool)
	if n > len(shuffled) {
		n = len(shuffled)
	}
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(shuffled)-i)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:n]
}
