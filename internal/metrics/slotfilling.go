package metrics

import (
	"fmt"
)

// SlotLabel is a single slot observation within a turn. A nil *SlotLabel
// stands for "slot absent" on that turn.
type SlotLabel struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// SlotCaptureRate is the fraction of predictions matching the expected slot
// value. Errors on an empty prediction list since the rate is undefined.
func SlotCaptureRate(slotsPredicted []string, expectedValue string) (float64, error) {
	if len(slotsPredicted) == 0 {
		return 0, fmt.Errorf("slot capture rate needs at least one prediction")
	}
	captured := 0
	for _, v := range slotsPredicted {
		if v == expectedValue {
			captured++
		}
	}
	return float64(captured) / float64(len(slotsPredicted)), nil
}

// SlotRetryRate aggregates the number of turns a slot took to fill across
// calls. Zero counts are treated as missing and skipped. aggFn defaults to
// the mean when nil.
func SlotRetryRate(slotTurnCounts []int, aggFn func([]float64) float64) (float64, error) {
	if len(slotTurnCounts) == 0 {
		return 0, fmt.Errorf("slot retry rate needs at least one turn count")
	}
	filtered := make([]float64, 0, len(slotTurnCounts))
	for _, c := range slotTurnCounts {
		if c != 0 {
			filtered = append(filtered, float64(c))
		}
	}
	if aggFn == nil {
		aggFn = mean
	}
	return aggFn(filtered), nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// SlotMismatchRate is the ratio of turns where slot types matched but values
// did not, over all turns where types matched. Turns where either side is
// absent are ignored.
func SlotMismatchRate(yTrue, yPred []*SlotLabel) float64 {
	n := len(yTrue)
	if len(yPred) < n {
		n = len(yPred)
	}

	var typeAndValue, typeOnly int
	for i := 0; i < n; i++ {
		if yTrue[i] == nil || yPred[i] == nil {
			continue
		}
		if yTrue[i].Type != yPred[i].Type {
			continue
		}
		if yTrue[i].Value == yPred[i].Value {
			typeAndValue++
		} else {
			typeOnly++
		}
	}

	if typeOnly+typeAndValue == 0 {
		return 0.0
	}
	return float64(typeOnly) / float64(typeOnly+typeAndValue)
}

type slotConfusion struct {
	tn, fp, fn, tp int
}

// present/absent confusion over the paired labels.
func slotPresenceConfusion(yTrue, yPred []*SlotLabel) slotConfusion {
	n := len(yTrue)
	if len(yPred) < n {
		n = len(yPred)
	}
	var c slotConfusion
	for i := 0; i < n; i++ {
		switch {
		case yTrue[i] == nil && yPred[i] == nil:
			c.tn++
		case yTrue[i] == nil && yPred[i] != nil:
			c.fp++
		case yTrue[i] != nil && yPred[i] == nil:
			c.fn++
		default:
			c.tp++
		}
	}
	return c
}

// SlotFNR is the false negative rate of slot presence. Callers segregate
// labels by slot type beforehand.
func SlotFNR(yTrue, yPred []*SlotLabel) float64 {
	c := slotPresenceConfusion(yTrue, yPred)
	if c.fn+c.tp == 0 {
		return 0.0
	}
	return float64(c.fn) / float64(c.fn+c.tp)
}

// SlotFPR is the false positive rate of slot presence.
func SlotFPR(yTrue, yPred []*SlotLabel) float64 {
	c := slotPresenceConfusion(yTrue, yPred)
	if c.fp+c.tn == 0 {
		return 0.0
	}
	return float64(c.fp) / float64(c.fp+c.tn)
}

// SlotSupport counts turns where the slot was truly present.
func SlotSupport(yTrue, yPred []*SlotLabel) int {
	c := slotPresenceConfusion(yTrue, yPred)
	return c.tp + c.fn
}

// SlotNegatives counts turns where the slot was truly absent.
func SlotNegatives(yTrue, yPred []*SlotLabel) int {
	c := slotPresenceConfusion(yTrue, yPred)
	return c.tn + c.fp
}
