// Package metrics implements deterministic evaluation measures shared by
// the report generators: multi-class classification reports, slot-filling
// rates, ASR error measures and VAD barge-in scoring. Every rate with a
// zero denominator is defined as 0.0 by policy.
package metrics

import "sort"

// LabelMetrics is one row of a classification report.
type LabelMetrics struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1-score"`
	Support   int     `json:"support"`
}

// ClassificationReport computes precision, recall, f1 and support per label
// over the union of labels seen in truth and prediction, sorted by label.
func ClassificationReport(yTrue, yPred []string) []LabelMetrics {
	labels := unionLabels(yTrue, yPred)
	return ClassificationReportForLabels(yTrue, yPred, labels)
}

// ClassificationReportForLabels restricts the report to the given labels.
func ClassificationReportForLabels(yTrue, yPred []string, labels []string) []LabelMetrics {
	n := len(yTrue)
	if len(yPred) < n {
		n = len(yPred)
	}

	tp := make(map[string]int)
	predCount := make(map[string]int)
	trueCount := make(map[string]int)
	for i := 0; i < n; i++ {
		trueCount[yTrue[i]]++
		predCount[yPred[i]]++
		if yTrue[i] == yPred[i] {
			tp[yTrue[i]]++
		}
	}

	sorted := append([]string(nil), labels...)
	sort.Strings(sorted)

	out := make([]LabelMetrics, 0, len(sorted))
	for _, label := range sorted {
		row := LabelMetrics{Label: label, Support: trueCount[label]}
		if predCount[label] > 0 {
			row.Precision = float64(tp[label]) / float64(predCount[label])
		}
		if trueCount[label] > 0 {
			row.Recall = float64(tp[label]) / float64(trueCount[label])
		}
		if row.Precision+row.Recall > 0 {
			row.F1 = 2 * row.Precision * row.Recall / (row.Precision + row.Recall)
		}
		out = append(out, row)
	}
	return out
}

func unionLabels(yTrue, yPred []string) []string {
	seen := make(map[string]struct{})
	for _, l := range yTrue {
		seen[l] = struct{}{}
	}
	for _, l := range yPred {
		seen[l] = struct{}{}
	}
	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// WeightedAverage produces a support-weighted summary row over the report,
// skipping the excluded labels (typically the no-entity sentinel).
func WeightedAverage(rows []LabelMetrics, exclude ...string) LabelMetrics {
	excluded := make(map[string]struct{}, len(exclude))
	for _, l := range exclude {
		excluded[l] = struct{}{}
	}

	avg := LabelMetrics{Label: "weighted avg"}
	totalSupport := 0
	for _, r := range rows {
		if _, skip := excluded[r.Label]; skip {
			continue
		}
		totalSupport += r.Support
		avg.Precision += r.Precision * float64(r.Support)
		avg.Recall += r.Recall * float64(r.Support)
		avg.F1 += r.F1 * float64(r.Support)
	}
	if totalSupport > 0 {
		avg.Precision /= float64(totalSupport)
		avg.Recall /= float64(totalSupport)
		avg.F1 /= float64(totalSupport)
	} else {
		avg.Precision, avg.Recall, avg.F1 = 0, 0, 0
	}
	avg.Support = totalSupport
	return avg
}

// WeightedScores returns support-weighted precision, recall and f1 over the
// given label subset, along with the total support.
func WeightedScores(yTrue, yPred []string, labels []string) (precision, recall, f1 float64, support int) {
	rows := ClassificationReportForLabels(yTrue, yPred, labels)
	avg := WeightedAverage(rows)
	return avg.Precision, avg.Recall, avg.F1, avg.Support
}

// FprFnr computes the false positive and false negative rates for a binary
// labelling. The first label is read as positive, the second as negative.
// Returns (fpr, total negatives), (fnr, total positives); rates are 0 when
// the corresponding denominator is 0.
func FprFnr(yTrue, yPred []string, positive, negative string) (fpr float64, totalNeg int, fnr float64, totalPos int) {
	n := len(yTrue)
	if len(yPred) < n {
		n = len(yPred)
	}

	var fp, fn int
	for i := 0; i < n; i++ {
		switch yTrue[i] {
		case negative:
			totalNeg++
			if yPred[i] == positive {
				fp++
			}
		case positive:
			totalPos++
			if yPred[i] == negative {
				fn++
			}
		}
	}

	if totalNeg > 0 {
		fpr = float64(fp) / float64(totalNeg)
	}
	if totalPos > 0 {
		fnr = float64(fn) / float64(totalPos)
	}
	return fpr, totalNeg, fnr, totalPos
}
