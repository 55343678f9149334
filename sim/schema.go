package sim

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// recommendResponseSchema is the shape a 2xx body must have before items[0]
// is trusted. An empty items array is a shape violation.
const recommendResponseSchema = `{
  "type": "object",
  "required": ["items"],
  "properties": {
    "items": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["item_id"],
        "properties": {
          "item_id": {"type": "integer"},
          "rank": {"type": "integer"},
          "score": {"type": "number"}
        }
      }
    },
    "latency_ms": {"type": ["number", "null"], "minimum": 0}
  }
}`

var (
	responseSchemaOnce sync.Once
	responseSchema     *gojsonschema.Schema
	responseSchemaErr  error
)

func compiledResponseSchema() (*gojsonschema.Schema, error) {
	responseSchemaOnce.Do(func() {
		responseSchema, responseSchemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(recommendResponseSchema))
	})
	return responseSchema, responseSchemaErr
}

// ValidateRecommendResponse checks a raw response body against the recommend
// response schema. Bodies that are not JSON are reported as parse errors.
func ValidateRecommendResponse(body []byte) error {
	schema, err := compiledResponseSchema()
	if err != nil {
		return fmt.Errorf("compiling response schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("JSON parse error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("malformed response: %s", strings.Join(msgs, "; "))
}
