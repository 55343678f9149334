package sim

import (
	"math/rand"
	"testing"
)

func TestFormatLogLine(t *testing.T) {
	p := Persona{ID: "user_omar_runner", Activity: ActivityWorkout, HourOfDay: 19, Device: "mobile"}
	tests := []struct {
		name string
		rec  *RequestRecord
		want string
	}{
		{
			name: "success",
			rec: &RequestRecord{Persona: p, Status: StatusOK, ChosenItemID: 104,
				ChosenArtist: "Midnight Oud", Reward: 0.8734, LatencyMs: 120.4},
			want: "OK,user_omar_runner,workout,19,mobile,104,Midnight Oud,0.87,120ms",
		},
		{
			name: "error",
			rec:  &RequestRecord{Persona: p, Status: StatusError, ErrorMessage: "HTTP 500: boom"},
			want: "ERR,user_omar_runner,HTTP 500: boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatLogLine(tt.rec); got != tt.want {
				t.Errorf("FormatLogLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSynthesizeReward_InRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		r := SynthesizeReward(rng)
		if r < 0.6 || r >= 1.0 {
			t.Fatalf("reward %v outside [0.6, 1.0)", r)
		}
	}
}

func TestArtistTable_Lookup(t *testing.T) {
	table := ArtistTable{1: "A", 2: ""}
	if got := table.Lookup(1); got != "A" {
		t.Errorf("Lookup(1) = %q, want A", got)
	}
	if got := table.Lookup(2); got != FallbackArtist {
		t.Errorf("Lookup(2) = %q, want fallback for blank name", got)
	}
	if got := table.Lookup(3); got != FallbackArtist {
		t.Errorf("Lookup(3) = %q, want fallback", got)
	}
}

func TestValidateRecommendResponse(t *testing.T) {
	tests := []struct {
		body  string
		valid bool
	}{
		{`{"items":[{"item_id":1,"rank":1,"score":0.5}]}`, true},
		{`{"items":[{"item_id":1}],"latency_ms":12.5}`, true},
		{`{"items":[{"item_id":1}],"latency_ms":-1}`, false},
		{`{"items":[{"item_id":1}],"latency_ms":null}`, true},
		{`{"items":[{"item_id":101.0,"rank":1.0}]}`, true},
		{`{"items":[{"item_id":101.5}]}`, false},
		{`{"items":[]}`, false},
		{`{}`, false},
		{`[]`, false},
		{`not json`, false},
	}
	for _, tt := range tests {
		err := ValidateRecommendResponse([]byte(tt.body))
		if (err == nil) != tt.valid {
			t.Errorf("ValidateRecommendResponse(%s) err = %v, want valid=%v", tt.body, err, tt.valid)
		}
	}
}
