package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// entityListSchema is the wire contract for a JSON-serialized entity list
// column. Value kinds outside {value, interval, categorical} violate the
// upstream contract and must surface as hard errors, not absent entities.
// The kind tag itself is optional: legacy rows omit it and the parser infers
// it from the value shape.
const entityListSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["type"],
    "properties": {
      "type": {"type": "string"},
      "values": {
        "type": "array",
        "items": {
          "type": "object",
          "properties": {
            "type": {"enum": ["value", "interval", "categorical"]}
          }
        }
      }
    }
  }
}`

var entitySchema = gojsonschema.NewStringLoader(entityListSchema)

// ValidationError describes one schema violation inside an entity payload.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateEntityPayload checks a raw entity-list JSON document against the
// wire contract. A nil error means the payload is well formed.
func ValidateEntityPayload(payload string) ([]ValidationError, error) {
	result, err := gojsonschema.Validate(entitySchema, gojsonschema.NewStringLoader(payload))
	if err != nil {
		return nil, fmt.Errorf("entity payload is not valid JSON: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return errs, nil
}

// FormatErrors renders validation errors into a single details string.
func FormatErrors(errs []ValidationError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}
