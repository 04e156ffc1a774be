package ord

import "conveval/internal/entity"

// NumberEq checks two numeric entities for the same value. With matchUnits
// the unit annotations must agree as well.
func NumberEq(a, b entity.Entity, matchUnits bool) bool {
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

// NumberEqLists tells whether the predictions match the truth positionally.
// Two empty lists are equal.
func NumberEqLists(truth, pred []entity.Entity) bool {
	if len(truth) != len(pred) {
		return false
	}
	for i := range truth {
		if !NumberEq(truth[i], pred[i], false) {
			return false
		}
	}
	return true
}
