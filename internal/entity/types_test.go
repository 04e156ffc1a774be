package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conveval/internal/common/errors"
)

func TestParseEntitiesNestedShape(t *testing.T) {
	payload := `[{"text": "25th April", "type": "date",
		"values": [{"type": "value", "value": "2019-04-25T00:00:00+05:30"}]}]`

	ents, err := ParseEntities(payload)
	require.NoError(t, err)
	require.Len(t, ents, 1)
	assert.Equal(t, "date", ents[0].Type)

	first, ok := ents[0].First()
	require.True(t, ok)
	assert.Equal(t, KindValue, first.Kind)
	assert.Equal(t, "2019-04-25T00:00:00+05:30", first.Text)
}

func TestParseEntitiesFlatLegacyShape(t *testing.T) {
	payload := `[{"type": "date", "value": "2019-04-21T00:00:00+05:30"}]`

	ents, err := ParseEntities(payload)
	require.NoError(t, err)
	require.Len(t, ents, 1)

	first, ok := ents[0].First()
	require.True(t, ok)
	assert.Equal(t, KindValue, first.Kind)
	assert.Equal(t, "2019-04-21T00:00:00+05:30", first.Text)
}

func TestParseEntitiesIntervalShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		span    Interval
	}{
		{
			name: "wrapped bounds",
			payload: `[{"type": "time", "values": [{"type": "interval",
				"value": {"from": {"value": "2021-07-24T18:00:00-07:00"},
				          "to": {"value": "2021-07-25T00:00:00-07:00"}}}]}]`,
			span: Interval{From: "2021-07-24T18:00:00-07:00", To: "2021-07-25T00:00:00-07:00"},
		},
		{
			name: "plain string bounds",
			payload: `[{"type": "time", "values": [{"type": "interval",
				"value": {"from": "2021-07-24T18:00:00-07:00", "to": "2021-07-25T00:00:00-07:00"}}]}]`,
			span: Interval{From: "2021-07-24T18:00:00-07:00", To: "2021-07-25T00:00:00-07:00"},
		},
		{
			name: "one-sided interval",
			payload: `[{"type": "time", "values": [{"type": "interval",
				"value": {"from": {"value": "2021-07-24T18:00:00-07:00"}}}]}]`,
			span: Interval{From: "2021-07-24T18:00:00-07:00"},
		},
		{
			name: "untagged interval-shaped value",
			payload: `[{"type": "time",
				"value": {"from": "2021-07-24T18:00:00-07:00", "to": "2021-07-25T00:00:00-07:00"}}]`,
			span: Interval{From: "2021-07-24T18:00:00-07:00", To: "2021-07-25T00:00:00-07:00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ents, err := ParseEntities(tt.payload)
			require.NoError(t, err)
			require.Len(t, ents, 1)

			first, ok := ents[0].First()
			require.True(t, ok)
			assert.Equal(t, KindInterval, first.Kind)
			assert.Equal(t, tt.span, first.Span)
		})
	}
}

func TestParseEntitiesNumericAndCategorical(t *testing.T) {
	payload := `[
		{"type": "number", "values": [{"type": "value", "value": 4}]},
		{"type": "payment", "values": [{"type": "categorical", "value": "cash"}]}
	]`

	ents, err := ParseEntities(payload)
	require.NoError(t, err)
	require.Len(t, ents, 2)

	num, _ := ents[0].First()
	assert.True(t, num.IsNumber)
	assert.Equal(t, 4.0, num.Number)

	cat, _ := ents[1].First()
	assert.Equal(t, KindCategorical, cat.Kind)
	assert.Equal(t, "cash", cat.Text)
}

func TestParseEntitiesAbsence(t *testing.T) {
	for _, payload := range []string{"", "null", "[]", "not json at all", "{broken"} {
		ents, err := ParseEntities(payload)
		assert.NoError(t, err, payload)
		assert.Nil(t, ents, payload)
	}
}

func TestParseEntitiesUnsupportedKind(t *testing.T) {
	payload := `[{"type": "date", "values": [{"type": "duration", "value": "PT1H"}]}]`

	_, err := ParseEntities(payload)
	require.Error(t, err)

	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeUnsupportedValueKind, stdErr.Code)
}

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name  string
		a, b  ValueRecord
		equal bool
	}{
		{
			name:  "equal text",
			a:     ValueRecord{Kind: KindValue, Text: "cash"},
			b:     ValueRecord{Kind: KindValue, Text: "cash"},
			equal: true,
		},
		{
			name:  "equal numbers",
			a:     ValueRecord{Kind: KindValue, Number: 4, IsNumber: true},
			b:     ValueRecord{Kind: KindValue, Number: 4, IsNumber: true},
			equal: true,
		},
		{
			name:  "number against text",
			a:     ValueRecord{Kind: KindValue, Number: 4, IsNumber: true},
			b:     ValueRecord{Kind: KindValue, Text: "4"},
			equal: false,
		},
		{
			name:  "equal spans",
			a:     ValueRecord{Kind: KindInterval, Span: Interval{From: "a", To: "b"}},
			b:     ValueRecord{Kind: KindInterval, Span: Interval{From: "a", To: "b"}},
			equal: true,
		},
		{
			name:  "interval against point",
			a:     ValueRecord{Kind: KindInterval, Span: Interval{From: "a", To: "b"}},
			b:     ValueRecord{Kind: KindValue, Text: "a"},
			equal: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, ValueEqual(tt.a, tt.b))
		})
	}
}
