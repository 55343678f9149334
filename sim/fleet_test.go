package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFleet_CuratedFirstThenFillers(t *testing.T) {
	// GIVEN a seeded fleet RNG
	rng := newRandFromSeed(7)

	// WHEN a default-size fleet is built
	fleet := BuildFleet(rng, DefaultFleetSize)

	// THEN it has 50 personas led by the 5 curated ones
	require.Len(t, fleet, DefaultFleetSize)
	curated := CuratedPersonas()
	assert.Equal(t, curated, fleet[:len(curated)])

	ids := make(map[string]bool)
	for i, p := range fleet {
		assert.False(t, ids[p.ID], "duplicate persona id %s", p.ID)
		ids[p.ID] = true
		assert.GreaterOrEqual(t, p.HourOfDay, 0, "persona %d hour", i)
		assert.LessOrEqual(t, p.HourOfDay, 23, "persona %d hour", i)
		assert.NotEmpty(t, p.DisplayName)
		assert.NotEmpty(t, p.Task)
		assert.NotEmpty(t, p.Activity)
	}
}

func TestBuildFleet_FillerDevicesCycle(t *testing.T) {
	fleet := BuildFleet(newRandFromSeed(1), 5+2*len(Devices))
	fillers := fleet[5:]
	for i, p := range fillers {
		if p.Device != Devices[i%len(Devices)] {
			t.Errorf("filler %d device = %q, want %q", i, p.Device, Devices[i%len(Devices)])
		}
	}
	if fillers[0].ID != "user_sim_06" {
		t.Errorf("first filler id = %q, want user_sim_06", fillers[0].ID)
	}
}

func TestBuildFleet_SameSeedSameFleet(t *testing.T) {
	a := BuildFleet(newRandFromSeed(99), DefaultFleetSize)
	b := BuildFleet(newRandFromSeed(99), DefaultFleetSize)
	assert.Equal(t, a, b)
}

func TestBuildFleet_SmallSizes(t *testing.T) {
	assert.Nil(t, BuildFleet(newRandFromSeed(1), 0))
	assert.Len(t, BuildFleet(newRandFromSeed(1), 3), 3)
}

func TestSampleFleet_ExactSizeNoDuplicates(t *testing.T) {
	// For every pool size ≥ 15 the sample is exactly 15 distinct personas.
	for size := DefaultSampleSize; size <= 60; size++ {
		pool := BuildFleet(newRandFromSeed(int64(size)), size)
		for seed := int64(0); seed < 5; seed++ {
			sample := SampleFleet(pool, DefaultSampleSize, newRandFromSeed(seed))
			if len(sample) != DefaultSampleSize {
				t.Fatalf("pool %d seed %d: sample size = %d, want %d", size, seed, len(sample), DefaultSampleSize)
			}
			seen := make(map[string]bool)
			for _, p := range sample {
				if seen[p.ID] {
					t.Fatalf("pool %d seed %d: duplicate persona %s", size, seed, p.ID)
				}
				seen[p.ID] = true
			}
		}
	}
}

func TestSampleFleet_DoesNotReorderPool(t *testing.T) {
	pool := BuildFleet(newRandFromSeed(3), DefaultFleetSize)
	before := append([]Persona(nil), pool...)
	_ = SampleFleet(pool, DefaultSampleSize, newRandFromSeed(3))
	assert.Equal(t, before, pool)
}

func TestSampleFleet_SmallPoolReturnsWholePool(t *testing.T) {
	pool := CuratedPersonas()
	sample := SampleFleet(pool, DefaultSampleSize, newRandFromSeed(1))
	assert.Len(t, sample, len(pool))
	assert.ElementsMatch(t, pool, sample)
}

func TestSampleFleet_DifferentSeedsDifferentOrder(t *testing.T) {
	pool := BuildFleet(newRandFromSeed(3), DefaultFleetSize)
	a := SampleFleet(pool, DefaultSampleSize, newRandFromSeed(1))
	b := SampleFleet(pool, DefaultSampleSize, newRandFromSeed(2))
	assert.NotEqual(t, a, b)
}

func TestSampleFleet_EmptyInputs(t *testing.T) {
	assert.Nil(t, SampleFleet(nil, 5, newRandFromSeed(1)))
	assert.Nil(t, SampleFleet(CuratedPersonas(), 0, newRandFromSeed(1)))
}
