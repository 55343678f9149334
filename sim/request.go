package sim

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Record status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// DefaultNumResults is the num_results sent with every recommend request.
const DefaultNumResults = 4

// RecommendContext is the context object of a recommend request.
type RecommendContext struct {
	Activity string `json:"activity"`
	Hour     int    `json:"hour"`
	Device   string `json:"device"`
}

// RecommendRequest is the JSON body of POST {endpoint}/recommend.
type RecommendRequest struct {
	UserID     string           `json:"user_id"`
	SessionID  string           `json:"session_id"`
	Context    RecommendContext `json:"context"`
	NumResults int              `json:"num_results"`
	Task       string           `json:"task"`
}

// NewRecommendRequest builds the request body for one persona.
func NewRecommendRequest(p Persona, sessionID string, numResults int) *RecommendRequest {
	return &RecommendRequest{
		UserID:    p.ID,
		SessionID: sessionID,
		Context: RecommendContext{
			Activity: p.Activity,
			Hour:     p.HourOfDay,
			Device:   p.Device,
		},
		NumResults: numResults,
		Task:       p.Task,
	}
}

// Item is one ranked recommendation.
type Item struct {
	ItemID int64   `json:"item_id"`
	Rank   int     `json:"rank"`
	Score  float64 `json:"score"`
}

// UnmarshalJSON accepts whole-valued floats such as 101.0 for item_id and rank.
func (it *Item) UnmarshalJSON(data []byte) error {
	var raw struct {
		ItemID json.Number `json:"item_id"`
		Rank   json.Number `json:"rank"`
		Score  float64     `json:"score"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := wholeNumber(raw.ItemID)
	if err != nil {
		return fmt.Errorf("item_id: %w", err)
	}
	rank, err := wholeNumber(raw.Rank)
	if err != nil {
		return fmt.Errorf("rank: %w", err)
	}
	*it = Item{ItemID: id, Rank: int(rank), Score: raw.Score}
	return nil
}

// wholeNumber converts n to an int64. An absent number is 0.
func wholeNumber(n json.Number) (int64, error) {
	if n == "" {
		return 0, nil
	}
	if v, err := n.Int64(); err == nil {
		return v, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%s is not a whole number", n)
	}
	return int64(f), nil
}

// RecommendResponse is the expected 2xx body. LatencyMs is optional.
type RecommendResponse struct {
	Items     []Item   `json:"items"`
	LatencyMs *float64 `json:"latency_ms,omitempty"`
}

// RequestRecord captures one dispatched request and its classified outcome.
// It is handed to every RecordSink and folded into the run aggregate, then dropped.
type RequestRecord struct {
	Index        int
	Persona      Persona
	SessionID    string
	StartTime    time.Time
	LatencyMs    float64 // server-reported latency_ms when present, else RoundTripMs
	RoundTripMs  float64
	HTTPStatus   int
	Status       string // "ok", "error"
	ErrorMessage string

	// Populated on success only.
	ChosenItemID int64
	ChosenArtist string
	Reward       float64
	Items        []Item
}

// OK reports whether the request succeeded.
func (r *RequestRecord) OK() bool {
	return r.Status == StatusOK
}
