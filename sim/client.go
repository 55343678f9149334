package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// HTTPDoer is the subset of *http.Client the recommend client needs.
// Tests substitute canned transports through it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RecommendClient sends recommend requests to one operator-supplied endpoint.
type RecommendClient struct {
	baseURL    string
	apiKey     string
	httpClient HTTPDoer
}

// NormalizeEndpoint trims surrounding whitespace and trailing slashes.
// An empty result means the endpoint is unusable.
func NormalizeEndpoint(endpoint string) string {
	return strings.TrimRight(strings.TrimSpace(endpoint), "/")
}

// NewRecommendClient creates a client for baseURL. A nil httpClient falls back
// to http.DefaultClient, which applies no request timeout.
func NewRecommendClient(baseURL, apiKey string, httpClient HTTPDoer) *RecommendClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RecommendClient{
		baseURL:    NormalizeEndpoint(baseURL),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// URL returns the recommend URL requests are posted to.
func (c *RecommendClient) URL() string {
	return c.baseURL + "/recommend"
}

// Send dispatches one recommend request and classifies the outcome.
// Transport, status and body-shape failures are recorded on the returned record
// with Status "error"; the returned error is non-nil only when ctx is done.
func (c *RecommendClient) Send(ctx context.Context, req *RecommendRequest) (*RequestRecord, error) {
	record := &RequestRecord{
		SessionID: req.SessionID,
		Status:    StatusOK,
	}

	bodyBytes, err := json.Marshal(req)
	if err != nil {
		record.fail(fmt.Sprintf("marshal error: %v", err))
		return record, nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(), bytes.NewReader(bodyBytes))
	if err != nil {
		record.fail(fmt.Sprintf("request creation error: %v", err))
		return record, nil
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	record.StartTime = time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		record.fail(fmt.Sprintf("HTTP error: %v", err))
		return record, nil
	}
	defer func() { _ = resp.Body.Close() }()

	bodyData, err := io.ReadAll(resp.Body)
	record.RoundTripMs = float64(time.Since(record.StartTime).Microseconds()) / 1000.0
	record.LatencyMs = record.RoundTripMs
	record.HTTPStatus = resp.StatusCode
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		record.fail(fmt.Sprintf("read error: %v", err))
		return record, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		record.fail(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyData))))
		return record, nil
	}

	if err := ValidateRecommendResponse(bodyData); err != nil {
		record.fail(err.Error())
		return record, nil
	}
	var result RecommendResponse
	if err := json.Unmarshal(bodyData, &result); err != nil {
		record.fail(fmt.Sprintf("JSON parse error: %v", err))
		return record, nil
	}

	record.Items = result.Items
	record.ChosenItemID = result.Items[0].ItemID
	if result.LatencyMs != nil {
		record.LatencyMs = *result.LatencyMs
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    req.UserID,
		"session_id": req.SessionID,
		"status":     resp.StatusCode,
		"items":      len(result.Items),
	}).Debug("recommend request succeeded")
	return record, nil
}

func (r *RequestRecord) fail(msg string) {
	r.Status = StatusError
	r.ErrorMessage = msg
}
