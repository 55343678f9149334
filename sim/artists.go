package sim

import "math/rand"

// FallbackArtist is shown when an item id has no entry in the artist table.
const FallbackArtist = "Unknown Artist"

// ArtistTable maps catalogue item ids to display artist names.
type ArtistTable map[int64]string

// DefaultArtists returns the static demo catalogue.
func DefaultArtists() ArtistTable {
	return ArtistTable{
		101: "Nour Haddad",
		102: "The Desert Lights",
		103: "Yasmin Aziz",
		104: "Midnight Oud",
		105: "Karim & The Tides",
		106: "Lunar Echo",
		107: "Salma Rahman",
		108: "Sandstorm Collective",
	}
}

// Lookup returns the artist for id, or FallbackArtist.
func (t ArtistTable) Lookup(id int64) string {
	if name, ok := t[id]; ok && name != "" {
		return name
	}
	return FallbackArtist
}

// SynthesizeReward draws a pseudo-reward uniformly in [0.6, 1.0).
func SynthesizeReward(rng *rand.Rand) float64 {
	return 0.6 + 0.4*rng.Float64()
}
