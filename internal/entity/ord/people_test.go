package ord

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"conveval/internal/entity"
)

func numberValue(n float64, unit string) entity.ValueRecord {
	return entity.ValueRecord{Kind: entity.KindValue, Number: n, IsNumber: true, Unit: unit}
}

func TestPeopleEq(t *testing.T) {
	tests := []struct {
		name       string
		a, b       entity.Entity
		matchUnits bool
		same       bool
	}{
		{
			name: "same count different units without unit matching",
			a:    entity.Entity{Type: "people", Values: []entity.ValueRecord{numberValue(2, "person")}},
			b:    entity.Entity{Type: "people", Values: []entity.ValueRecord{numberValue(2, "adult")}},
			same: true,
		},
		{
			name:       "same count different units with unit matching",
			a:          entity.Entity{Type: "people", Values: []entity.ValueRecord{numberValue(2, "person")}},
			b:          entity.Entity{Type: "people", Values: []entity.ValueRecord{numberValue(2, "adult")}},
			matchUnits: true,
			same:       false,
		},
		{
			name: "different counts",
			a:    entity.Entity{Type: "people", Values: []entity.ValueRecord{numberValue(2, "person")}},
			b:    entity.Entity{Type: "people", Values: []entity.ValueRecord{numberValue(4, "person")}},
			same: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.same, PeopleEq(tt.a, tt.b, tt.matchUnits))
		})
	}
}

func TestSumPeople(t *testing.T) {
	tests := []struct {
		name  string
		ents  []entity.Entity
		total float64
		ok    bool
	}{
		{
			name: "adults and children",
			ents: []entity.Entity{
				{Type: "people", Values: []entity.ValueRecord{numberValue(2, "adult")}},
				{Type: "people", Values: []entity.ValueRecord{numberValue(1, "child")}},
			},
			total: 3,
			ok:    true,
		},
		{
			name: "male female child grouping wins",
			ents: []entity.Entity{
				{Type: "people", Values: []entity.ValueRecord{
					numberValue(2, "male"),
					numberValue(2, "female"),
					numberValue(1, "child"),
				}},
			},
			total: 5,
			ok:    true,
		},
		{
			name: "overlapping vocabularies take the maximum",
			ents: []entity.Entity{
				{Type: "people", Values: []entity.ValueRecord{
					numberValue(4, "person"),
					numberValue(1, "veg"),
				}},
			},
			total: 4,
			ok:    true,
		},
		{
			name: "falls back to a number entity",
			ents: []entity.Entity{
				{Type: "number", Values: []entity.ValueRecord{numberValue(6, "")}},
			},
			total: 6,
			ok:    true,
		},
		{
			name: "nothing usable",
			ents: []entity.Entity{
				{Type: "date", Values: []entity.ValueRecord{{Kind: entity.KindValue, Text: "2019-04-21"}}},
			},
			total: 0,
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, ok := SumPeople(tt.ents)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.total, total)
		})
	}
}

func TestNumberEq(t *testing.T) {
	a := entity.Entity{Type: "number", Values: []entity.ValueRecord{numberValue(4, "")}}
	b := entity.Entity{Type: "number", Values: []entity.ValueRecord{numberValue(4, "")}}
	c := entity.Entity{Type: "number", Values: []entity.ValueRecord{numberValue(5, "")}}

	assert.True(t, NumberEq(a, b, false))
	assert.False(t, NumberEq(a, c, false))
	assert.True(t, NumberEqLists(nil, nil))
	assert.False(t, NumberEqLists([]entity.Entity{a}, nil))
}
