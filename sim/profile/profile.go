// Package profile turns the persona profile mapping into the display-ready
// persona list consumed by the demo page.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Display task names.
const (
	TaskSleep   = "Sleep"
	TaskPodcast = "Podcast"
	TaskMusic   = "Music"
)

// Energy categories.
const (
	CategoryHighEnergy = "High Energy"
	CategoryChill      = "Chill"
	CategoryCasual     = "Casual"
)

const idPrefix = "user_"

// Profile is one entry of the persona profile mapping.
type Profile struct {
	PreferredGenres []string `json:"preferred_genres"`
	PrefEnergy      float64  `json:"pref_energy"`
	PrefVocal       float64  `json:"pref_vocal"`
}

// Context carries the raw preferences through to the page.
type Context struct {
	Energy float64  `json:"energy"`
	Vocal  float64  `json:"vocal"`
	Genres []string `json:"genres"`
}

// FleetEntry is one display-ready persona.
type FleetEntry struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Task     string  `json:"task"`
	Context  Context `json:"context"`
	Category string  `json:"category"`
}

const profilesSchema = `{
  "type": "object",
  "additionalProperties": {
    "type": "object",
    "required": ["preferred_genres", "pref_energy", "pref_vocal"],
    "properties": {
      "preferred_genres": {"type": "array", "items": {"type": "string"}},
      "pref_energy": {"type": "number"},
      "pref_vocal": {"type": "number"}
    }
  }
}`

// LoadProfiles reads and validates a persona profile mapping file.
// Any read, parse or schema failure is returned as an error.
func LoadProfiles(path string) (map[string]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading persona profiles: %w", err)
	}
	return ParseProfiles(data)
}

// ParseProfiles validates raw JSON against the profile schema and decodes it.
func ParseProfiles(data []byte) (map[string]Profile, error) {
	loader := gojsonschema.NewBytesLoader(data)
	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(profilesSchema), loader)
	if err != nil {
		return nil, fmt.Errorf("parsing persona profiles: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("invalid persona profiles: %s", strings.Join(msgs, "; "))
	}

	var profiles map[string]Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("decoding persona profiles: %w", err)
	}
	return profiles, nil
}

// Prepare converts every profile into a FleetEntry, sorted by id.
// Pure function: the same mapping always yields the same slice.
func Prepare(profiles map[string]Profile) []FleetEntry {
	entries := make([]FleetEntry, 0, len(profiles))
	for id, p := range profiles {
		genres := p.PreferredGenres
		if genres == nil {
			genres = []string{}
		}
		entries = append(entries, FleetEntry{
			ID:   id,
			Name: DisplayName(id),
			Task: TaskFor(genres),
			Context: Context{
				Energy: p.PrefEnergy,
				Vocal:  p.PrefVocal,
				Genres: append([]string{}, genres...),
			},
			Category: CategoryFor(p.PrefEnergy),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

// DisplayName strips the "user_" prefix, turns the first remaining underscore
// into a space and upper-cases the result: "user_night_owl_2" → "NIGHT OWL_2".
func DisplayName(id string) string {
	name := strings.Replace(id, idPrefix, "", 1)
	name = strings.Replace(name, "_", " ", 1)
	return strings.ToUpper(name)
}

// TaskFor picks the task by first match: ambient → Sleep, podcast → Podcast, else Music.
func TaskFor(genres []string) string {
	switch {
	case contains(genres, "ambient"):
		return TaskSleep
	case contains(genres, "podcast"):
		return TaskPodcast
	default:
		return TaskMusic
	}
}

// CategoryFor buckets energy: > 0.7 High Energy, < 0.3 Chill, else Casual.
func CategoryFor(energy float64) string {
	switch {
	case energy > 0.7:
		return CategoryHighEnergy
	case energy < 0.3:
		return CategoryChill
	default:
		return CategoryCasual
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
