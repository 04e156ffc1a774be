package ord

import "conveval/internal/entity"

// peopleGroupings are the unit combinations tried when summing people
// entities into a single headcount. They overlap on purpose: upstream
// taggers emit any of these unit vocabularies, and the maximum over the
// candidate sums is taken as the "most information used" total. Preserved
// as-is; downstream reports depend on the exact numbers.
var peopleGroupings = [][]string{
	{"person", "child"},
	{"adult", "child"},
	{"male", "female", "child"},
	{"veg", "nonveg"},
}

// PeopleEq checks two people entities for the same headcount. With
// matchUnits the unit annotations must agree too; the default compares
// values only, because upstream systems sum multi-unit people entities into
// one before comparison.
func PeopleEq(a, b entity.Entity, matchUnits bool) bool {
	if matchUnits {
		if len(a.Values) != len(b.Values) {
			return false
		}
		for i := range a.Values {
			if a.Values[i].Unit != b.Values[i].Unit || !entity.ValueEqual(a.Values[i], b.Values[i]) {
				return false
			}
		}
		return true
	}

	av, aok := a.First()
	bv, bok := b.First()
	if !aok || !bok {
		return false
	}
	return entity.ValueEqual(av, bv)
}

// PeopleEqLists tells whether the predictions match the truth positionally.
func PeopleEqLists(truth, pred []entity.Entity) bool {
	if len(truth) != len(pred) {
		return false
	}
	for i := range truth {
		if !PeopleEq(truth[i], pred[i], false) {
			return false
		}
	}
	return true
}

// SumPeople combines the people-type values found across candidate entities
// into one canonical headcount. Each unit grouping is summed independently
// and the maximum candidate wins. Falls back to a plain number entity when
// no people-unit values exist at all. The second return is false when
// nothing usable was found.
func SumPeople(ents []entity.Entity) (float64, bool) {
	unitTotals := make(map[string]float64)
	found := false

	for _, ent := range ents {
		if ent.Type != "people" {
			continue
		}
		for _, v := range ent.Values {
			if !v.IsNumber {
				continue
			}
			unitTotals[v.Unit] += v.Number
			found = true
		}
	}

	if !found {
		for _, ent := range ents {
			if ent.Type != "number" {
				continue
			}
			if v, ok := ent.First(); ok && v.IsNumber {
				return v.Number, true
			}
		}
		return 0, false
	}

	var best float64
	for _, grouping := range peopleGroupings {
		var sum float64
		for _, unit := range grouping {
			sum += unitTotals[unit]
		}
		if sum > best {
			best = sum
		}
	}
	return best, true
}
