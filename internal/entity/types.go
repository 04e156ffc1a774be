// Package entity implements the entity comparison and reconciliation engine:
// a tagged value model for extracted entities, per-row comparison of truth
// against prediction with datetime decomposition, and aggregation of the
// outcomes into per-type reports.
package entity

import (
	"encoding/json"
	stderrors "errors"
	"fmt"

	"conveval/internal/common/errors"
)

// ValueKind tags the shape of a single value record.
type ValueKind string

const (
	KindValue       ValueKind = "value"
	KindInterval    ValueKind = "interval"
	KindCategorical ValueKind = "categorical"
)

// Interval is a half-open range of ISO timestamps. Either bound may be
// absent; an interval with both bounds absent never matches anything.
type Interval struct {
	From string
	To   string
}

// ValueRecord is one typed value inside an entity. Exactly one of Text,
// Number or Span carries data, decided by Kind: point and categorical
// values use Text (or Number for numeric points), intervals use Span.
type ValueRecord struct {
	Kind     ValueKind
	Text     string
	Number   float64
	IsNumber bool
	Span     Interval
	Unit     string
}

// Entity is a tagged value extracted from an utterance.
type Entity struct {
	Type   string
	Values []ValueRecord
}

// rawValueRecord mirrors the wire shape of a value record. The "value" field
// is polymorphic: an ISO string, a number, a categorical string, or an
// interval object whose bounds may be plain strings or {"value": ...}
// wrappers.
type rawValueRecord struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
	Unit  string          `json:"unit,omitempty"`
}

type rawEntity struct {
	Type   string           `json:"type"`
	Values []rawValueRecord `json:"values"`
	Value  json.RawMessage  `json:"value"`
}

func (v *ValueRecord) UnmarshalJSON(data []byte) error {
	var raw rawValueRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rec, err := decodeValueRecord(raw)
	if err != nil {
		return err
	}
	*v = rec
	return nil
}

func decodeValueRecord(raw rawValueRecord) (ValueRecord, error) {
	kind := ValueKind(raw.Type)
	switch kind {
	case KindValue, KindInterval, KindCategorical:
	case "":
		// Legacy rows omit the kind tag; infer it from the value shape.
		if isIntervalShaped(raw.Value) {
			kind = KindInterval
		} else {
			kind = KindValue
		}
	default:
		return ValueRecord{}, errors.NewUnsupportedValueKindError(raw.Type)
	}

	rec := ValueRecord{Kind: kind, Unit: raw.Unit}

	switch kind {
	case KindInterval:
		span, err := decodeInterval(raw.Value)
		if err != nil {
			return ValueRecord{}, err
		}
		rec.Span = span
	default:
		if len(raw.Value) == 0 {
			return rec, nil
		}
		var s string
		if err := json.Unmarshal(raw.Value, &s); err == nil {
			rec.Text = s
			return rec, nil
		}
		var n float64
		if err := json.Unmarshal(raw.Value, &n); err == nil {
			rec.Number = n
			rec.IsNumber = true
			return rec, nil
		}
		var b bool
		if err := json.Unmarshal(raw.Value, &b); err == nil {
			rec.Text = fmt.Sprintf("%t", b)
			return rec, nil
		}
		return ValueRecord{}, fmt.Errorf("cannot decode value record payload: %s", string(raw.Value))
	}
	return rec, nil
}

func isIntervalShaped(raw json.RawMessage) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	_, hasFrom := probe["from"]
	_, hasTo := probe["to"]
	return hasFrom || hasTo
}

func decodeInterval(raw json.RawMessage) (Interval, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Interval{}, fmt.Errorf("interval value is not an object: %w", err)
	}

	span := Interval{}
	if b, ok := probe["from"]; ok {
		s, err := decodeBound(b)
		if err != nil {
			return Interval{}, err
		}
		span.From = s
	}
	if b, ok := probe["to"]; ok {
		s, err := decodeBound(b)
		if err != nil {
			return Interval{}, err
		}
		span.To = s
	}
	return span, nil
}

// decodeBound accepts "2021-..." and {"value": "2021-..."} bound shapes.
func decodeBound(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var wrapped struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Value != "" {
		return wrapped.Value, nil
	}
	return "", fmt.Errorf("cannot decode interval bound: %s", string(raw))
}

func (e *Entity) UnmarshalJSON(data []byte) error {
	var raw rawEntity
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := Entity{Type: raw.Type}
	if len(raw.Values) > 0 {
		out.Values = make([]ValueRecord, 0, len(raw.Values))
		for _, rv := range raw.Values {
			rec, err := decodeValueRecord(rv)
			if err != nil {
				return err
			}
			out.Values = append(out.Values, rec)
		}
	} else if len(raw.Value) > 0 {
		// Flat legacy shape with a single top-level value.
		rec, err := decodeValueRecord(rawValueRecord{Value: raw.Value})
		if err != nil {
			return err
		}
		out.Values = []ValueRecord{rec}
	}

	*e = out
	return nil
}

// First returns the entity's first value record. The toolkit evaluates a
// single entity value per turn; callers relying on later records must handle
// them explicitly.
func (e Entity) First() (ValueRecord, bool) {
	if len(e.Values) == 0 {
		return ValueRecord{}, false
	}
	return e.Values[0], true
}

// ValueEqual compares two value records by raw payload, used for generic and
// categorical entity types.
func ValueEqual(a, b ValueRecord) bool {
	if a.IsNumber != b.IsNumber {
		return false
	}
	if a.IsNumber {
		return a.Number == b.Number
	}
	if a.Kind == KindInterval || b.Kind == KindInterval {
		return a.Kind == b.Kind && a.Span == b.Span
	}
	return a.Text == b.Text
}

// ParseEntities decodes a JSON-serialized entity list. Malformed JSON or an
// empty payload decodes to nil (absence is a valid business state); a payload
// that parses but violates the value-kind contract is a hard error.
func ParseEntities(payload string) ([]Entity, error) {
	if payload == "" || payload == "null" {
		return nil, nil
	}

	var probe interface{}
	if err := json.Unmarshal([]byte(payload), &probe); err != nil {
		return nil, nil
	}

	var ents []Entity
	if err := json.Unmarshal([]byte(payload), &ents); err != nil {
		var stdErr *errors.StandardError
		if stderrors.As(err, &stdErr) {
			return nil, stdErr
		}
		return nil, nil
	}
	if len(ents) == 0 {
		return nil, nil
	}
	return ents, nil
}
