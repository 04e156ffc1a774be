package eval

import (
	"context"
	"fmt"
	"sort"

	"conveval/internal/common/errors"
	"conveval/internal/common/logger"
	commonmetrics "conveval/internal/common/metrics"
	"conveval/internal/common/validation"
	"conveval/internal/entity"
	"conveval/internal/metrics"
)

// Row is one joined turn under evaluation. Empty payloads mean "no entity
// for this turn", a valid business state distinct from an empty list.
type Row struct {
	ID       string
	TrueJSON string
	PredJSON string
}

// ReportRow is the per-entity-type output of the aggregation engine.
type ReportRow struct {
	EntityType        string  `json:"entity"`
	FalsePositiveRate float64 `json:"false_positive_rate"`
	FalseNegativeRate float64 `json:"false_negative_rate"`
	MismatchRate      float64 `json:"mismatch_rate"`
	Support           int     `json:"support"`
	Negatives         int     `json:"negatives"`
}

// fixedTypes are the entity types with dedicated equality predicates;
// everything else goes down the categorical path.
var fixedTypes = map[string]struct{}{
	"date":     {},
	"time":     {},
	"datetime": {},
	"people":   {},
	"number":   {},
}

// NoEntityLabel is the sentinel class used in the categorical report for
// turns with no entity on one side.
const NoEntityLabel = "_"

// Engine runs entity reports over joined label rows.
type Engine struct {
	log   logger.Logger
	sinks []DumpSink
}

func NewEngine(log logger.Logger, sinks ...DumpSink) *Engine {
	return &Engine{
		log:   log.WithFields(map[string]interface{}{"component": "entity-report"}),
		sinks: sinks,
	}
}

// parsedRow holds one row after payload decoding and comparison.
type parsedRow struct {
	row    Row
	truth  []entity.Entity
	pred   []entity.Entity
	result *ComparisonResult
}

// decodeEntities turns one payload column into entities. Empty or non-JSON
// payloads are absence; JSON that violates the wire contract is a hard error.
func (e *Engine) decodeEntities(id, column, payload string) ([]entity.Entity, error) {
	if payload == "" || payload == "null" {
		return nil, nil
	}

	violations, err := validation.ValidateEntityPayload(payload)
	if err != nil {
		commonmetrics.MalformedPayloads.WithLabelValues(column).Inc()
		e.log.Warn("malformed entity payload treated as absent", map[string]interface{}{
			"id": id, "column": column,
		})
		return nil, nil
	}
	if len(violations) > 0 {
		return nil, errors.NewEntityPayloadInvalidError(validation.FormatErrors(violations))
	}

	return entity.ParseEntities(payload)
}

func (e *Engine) parseRows(rows []Row) ([]parsedRow, error) {
	parsed := make([]parsedRow, 0, len(rows))

	for _, row := range rows {
		truth, err := e.decodeEntities(row.ID, "true_entities", row.TrueJSON)
		if err != nil {
			return nil, fmt.Errorf("row %s: true entities: %w", row.ID, err)
		}

		pred, err := e.decodeEntities(row.ID, "pred_entities", row.PredJSON)
		if err != nil {
			return nil, fmt.Errorf("row %s: pred entities: %w", row.ID, err)
		}

		result, err := Compare(truth, pred)
		if err != nil {
			return nil, fmt.Errorf("row %s: %w", row.ID, err)
		}
		commonmetrics.RowsCompared.WithLabelValues("entity").Inc()

		parsed = append(parsed, parsedRow{row: row, truth: truth, pred: pred, result: result})
	}

	return parsed, nil
}

// collectTypes returns every distinct entity type present on either side or
// reconciled into a bucket by the comparator, sorted. datetime never gets a
// row of its own: the comparator always decomposes it into the date and time
// buckets, which are collected here instead.
func collectTypes(parsed []parsedRow) []string {
	seen := map[string]struct{}{}
	for _, pr := range parsed {
		for _, ent := range pr.truth {
			seen[ent.Type] = struct{}{}
		}
		for _, ent := range pr.pred {
			seen[ent.Type] = struct{}{}
		}
		if pr.result != nil {
			for _, bucket := range []map[string]int{pr.result.TP, pr.result.FP, pr.result.FN, pr.result.MM} {
				for t := range bucket {
					seen[t] = struct{}{}
				}
			}
		}
	}
	delete(seen, "datetime")
	delete(seen, "")

	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Report computes per-entity-type confusion statistics over the joined
// rows. With dump enabled, the rows contributing to the FP/FN/MM buckets
// are also written to the configured sinks; the dump never alters the
// statistics.
func (e *Engine) Report(ctx context.Context, rows []Row, dump bool) ([]ReportRow, error) {
	parsed, err := e.parseRows(rows)
	if err != nil {
		return nil, err
	}

	// Rows with no information are excluded from every statistic,
	// including the row total that negatives derive from.
	total := 0
	for _, pr := range parsed {
		if pr.result != nil {
			total++
		}
	}

	var dumpRec dumpRecorder

	report := make([]ReportRow, 0)
	for _, entityType := range collectTypes(parsed) {
		var support, tp, fp, fn, mm int

		for _, pr := range parsed {
			res := pr.result
			if res == nil || !res.References(entityType) {
				continue
			}

			// Support covers ordinary presence in truth plus presence
			// reconciled into this bucket by the datetime split.
			_, inTP := res.TP[entityType]
			_, inFN := res.FN[entityType]
			_, inMM := res.MM[entityType]
			if firstType(pr.truth) == entityType || inTP || inFN || inMM {
				support++
			}

			if inTP {
				tp++
			}
			if inFN {
				fn++
				dumpRec.add(BucketFalseNegative, entityType, pr.row)
			}
			if _, ok := res.FP[entityType]; ok {
				fp++
				dumpRec.add(BucketFalsePositive, entityType, pr.row)
			}
			if inMM {
				mm++
				dumpRec.add(BucketMismatch, entityType, pr.row)
			}
		}

		negatives := total - support

		// Zero denominators yield 0.0 by policy, never NaN.
		var fpr, fnr, mmr float64
		if negatives > 0 {
			fpr = float64(fp) / float64(negatives)
		}
		// Mismatches count as "attempted but wrong", not as negative
		// outcomes, so they stay in the FNR denominator.
		if fn+tp+mm > 0 {
			fnr = float64(fn) / float64(fn+tp+mm)
		}
		if tp+mm > 0 {
			mmr = float64(mm) / float64(tp+mm)
		}

		report = append(report, ReportRow{
			EntityType:        entityType,
			FalsePositiveRate: fpr,
			FalseNegativeRate: fnr,
			MismatchRate:      mmr,
			Support:           support,
			Negatives:         negatives,
		})
	}

	if dump && len(e.sinks) > 0 {
		if err := dumpRec.flush(ctx, e.sinks); err != nil {
			return nil, err
		}
	}

	commonmetrics.ReportsGenerated.WithLabelValues("entity").Inc()
	return report, nil
}

// CategoricalReport handles entity types outside the fixed set by building
// a type/value composite label per row and delegating to a multi-class
// classification report. Absence on either side is rendered as the
// NoEntityLabel sentinel so that misfires against "no entity" show up as
// classification errors instead of being dropped.
func (e *Engine) CategoricalReport(ctx context.Context, rows []Row) ([]metrics.LabelMetrics, error) {
	parsed, err := e.parseRows(rows)
	if err != nil {
		return nil, err
	}

	var yTrue, yPred []string

	for _, pr := range parsed {
		trueType := firstType(pr.truth)
		if trueType != "" {
			if _, fixed := fixedTypes[trueType]; fixed {
				continue
			}
		}

		if len(pr.truth) > 0 {
			first, ok := pr.truth[0].First()
			if !ok || first.Kind != entity.KindCategorical {
				// Non-categorical free-form values (durations, ordinals)
				// are out of scope for this report.
				continue
			}
			yTrue = append(yTrue, compositeLabel(trueType, first))
		} else {
			yTrue = append(yTrue, NoEntityLabel)
		}

		if len(pr.pred) > 0 {
			first, ok := pr.pred[0].First()
			if ok && first.Kind == entity.KindCategorical {
				yPred = append(yPred, compositeLabel(pr.pred[0].Type, first))
			} else if ok {
				yPred = append(yPred, valueLabel(first))
			} else {
				yPred = append(yPred, NoEntityLabel)
			}
		} else {
			yPred = append(yPred, NoEntityLabel)
		}
	}

	if len(yTrue) == 0 {
		return nil, nil
	}

	rowsOut := metrics.ClassificationReport(yTrue, yPred)

	// Labels never present in truth carry no support and are dropped.
	kept := rowsOut[:0]
	for _, r := range rowsOut {
		if r.Support > 0 {
			kept = append(kept, r)
		}
	}
	avg := metrics.WeightedAverage(kept, NoEntityLabel)
	kept = append(kept, avg)

	commonmetrics.ReportsGenerated.WithLabelValues("categorical-entity").Inc()
	return kept, nil
}

func compositeLabel(entityType string, v entity.ValueRecord) string {
	return entityType + "/" + valueLabel(v)
}

func valueLabel(v entity.ValueRecord) string {
	if v.IsNumber {
		return fmt.Sprintf("%v", v.Number)
	}
	return v.Text
}
