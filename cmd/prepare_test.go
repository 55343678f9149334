package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPrepare_WritesScriptAndReports(t *testing.T) {
	// GIVEN a profile mapping with two personas
	in := writeFile(t, "persona_profiles.json", `{
		"user_night_owl": {"preferred_genres": ["ambient"], "pref_energy": 0.1, "pref_vocal": 0.2},
		"user_gym_rat": {"preferred_genres": ["edm"], "pref_energy": 0.9, "pref_vocal": 0.5}
	}`)
	out := filepath.Join(t.TempDir(), "persona_data.js")
	var msg bytes.Buffer

	// WHEN prepared
	require.NoError(t, runPrepare(in, out, &msg))

	// THEN the script is written and the count is reported
	assert.Equal(t, "Generated persona_data.js with 2 personas.\n", msg.String())
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "const PERSONA_FLEET = ["))
	assert.Less(t, strings.Index(string(data), "user_gym_rat"), strings.Index(string(data), "user_night_owl"))
}

func TestRunPrepare_MalformedInput_NoOutput(t *testing.T) {
	in := writeFile(t, "persona_profiles.json", `{"user_a": "nope"}`)
	out := filepath.Join(t.TempDir(), "persona_data.js")

	err := runPrepare(in, out, &bytes.Buffer{})

	assert.Error(t, err)
	assert.NoFileExists(t, out)
}
