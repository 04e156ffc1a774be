// Package eval compares predicted entities against ground truth one
// annotated turn at a time and folds the outcomes into per-type reports.
package eval

import (
	"conveval/internal/entity"
	"conveval/internal/entity/ord"
)

// ComparisonResult classifies one row's outcome per entity type. A nil
// *ComparisonResult is the "no information" sentinel for rows where both
// truth and prediction are absent; such rows enter no statistic.
type ComparisonResult struct {
	TP map[string]int
	FP map[string]int
	FN map[string]int
	MM map[string]int
}

func newComparisonResult() *ComparisonResult {
	return &ComparisonResult{
		TP: map[string]int{},
		FP: map[string]int{},
		FN: map[string]int{},
		MM: map[string]int{},
	}
}

// References reports whether the result touches the entity type in any
// bucket.
func (r *ComparisonResult) References(entityType string) bool {
	if r == nil {
		return false
	}
	for _, bucket := range []map[string]int{r.TP, r.FP, r.FN, r.MM} {
		if _, ok := bucket[entityType]; ok {
			return true
		}
	}
	return false
}

// typeAliases maps interchangeable entity types to a canonical bucket.
// datetime is deliberately absent: it decomposes into two buckets instead of
// aliasing to one.
var typeAliases = map[string]string{
	"number": "number",
	"people": "number",
}

// typesEquivalent decides whether two entity type tags are comparable:
// exact match, or both resolving to the same alias bucket. Unknown
// combinations are not equivalent; ambiguous matches must surface as
// explicit false negatives/positives.
func typesEquivalent(trueType, predType string) bool {
	if trueType == "" || predType == "" {
		return false
	}
	if trueType == predType {
		return true
	}
	ta, tok := typeAliases[trueType]
	pa, pok := typeAliases[predType]
	return tok && pok && ta == pa
}

// eqFn dispatches the per-type equality predicate. Types outside the fixed
// set compare by raw first-value payload.
func eqFn(entityType string) func(truth, pred entity.Entity) (bool, error) {
	switch entityType {
	case "date":
		return ord.DateEq
	case "time":
		return ord.TimeEq
	case "people":
		return func(a, b entity.Entity) (bool, error) { return ord.PeopleEq(a, b, false), nil }
	case "number":
		return func(a, b entity.Entity) (bool, error) { return ord.NumberEq(a, b, false), nil }
	default:
		return genericEq
	}
}

func genericEq(truth, pred entity.Entity) (bool, error) {
	tv, tok := truth.First()
	pv, pok := pred.First()
	if !tok || !pok {
		return false, nil
	}
	return entity.ValueEqual(tv, pv), nil
}

func firstType(ents []entity.Entity) string {
	if len(ents) == 0 {
		return ""
	}
	return ents[0].Type
}

// Compare classifies a single annotated turn. Only the first entity on each
// side is considered. Returns nil (no information) when both sides are
// absent.
func Compare(truth, pred []entity.Entity) (*ComparisonResult, error) {
	if len(truth) == 0 && len(pred) == 0 {
		return nil, nil
	}

	trueType := firstType(truth)
	predType := firstType(pred)

	if trueType == "datetime" || predType == "datetime" {
		return compareDatetime(truth, pred)
	}

	res := newComparisonResult()

	if typesEquivalent(trueType, predType) {
		equal, err := eqFn(trueType)(truth[0], pred[0])
		if err != nil {
			return nil, err
		}
		if equal {
			res.TP[trueType]++
		} else {
			res.MM[trueType]++
		}
		return res, nil
	}

	// Types differ (or one side is absent): the expected type was never
	// predicted and the predicted type was never warranted. A single row
	// can contribute to both at once.
	if trueType != "" {
		res.FN[trueType]++
	}
	if predType != "" {
		res.FP[predType]++
	}
	return res, nil
}

// compareDatetime reconciles rows where at least one side is datetime-typed.
// datetime is a composite of two independent facets, date and time; each
// facet lands in its own bucket, so a datetime row never produces a
// "datetime" entry in the result.
func compareDatetime(truth, pred []entity.Entity) (*ComparisonResult, error) {
	if len(truth) == 0 && len(pred) == 0 {
		return nil, nil
	}

	trueType := firstType(truth)
	predType := firstType(pred)

	res := newComparisonResult()

	switch {
	case trueType == "datetime" && predType == "datetime":
		// Both facets are compared independently; each contributes a TP
		// or MM to its own bucket.
		for _, facet := range []string{"date", "time"} {
			equal, err := eqFn(facet)(truth[0], pred[0])
			if err != nil {
				return nil, err
			}
			if equal {
				res.TP[facet]++
			} else {
				res.MM[facet]++
			}
		}

	case trueType == "datetime":
		if predType == "date" || predType == "time" {
			equal, err := eqFn(predType)(truth[0], pred[0])
			if err != nil {
				return nil, err
			}
			if equal {
				res.TP[predType]++
			} else {
				res.MM[predType]++
			}
			// The truth implied the other facet too, and it was never
			// predicted.
			if predType == "time" {
				res.FN["date"]++
			} else {
				res.FN["time"]++
			}
		} else {
			res.FN["date"]++
			res.FN["time"]++
			if predType != "" {
				res.FP[predType]++
			}
		}

	default: // predType == "datetime"
		if trueType == "date" || trueType == "time" {
			equal, err := eqFn(trueType)(truth[0], pred[0])
			if err != nil {
				return nil, err
			}
			if equal {
				res.TP[trueType]++
			} else {
				res.MM[trueType]++
			}
			// The prediction implied the other facet, which was never
			// requested.
			if trueType == "time" {
				res.FP["date"]++
			} else {
				res.FP["time"]++
			}
		} else {
			res.FP["date"]++
			res.FP["time"]++
			if trueType != "" {
				res.FN[trueType]++
			}
		}
	}

	return res, nil
}
