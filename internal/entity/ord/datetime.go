// Package ord holds ordering, comparison and matching functions for entity
// values. Equality here is semantic: date comparisons look only at the
// calendar date, time comparisons only at the clock, and interval bounds are
// reconciled where the reconciliation is unambiguous.
package ord

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"

	"conveval/internal/common/errors"
	"conveval/internal/entity"
)

// Date is a calendar date with the time of day discarded.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Clock is a time of day with the date and zone discarded.
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// DateValue is either a point date or a date interval. Interval bounds may
// be nil when the source interval was one-sided.
type DateValue struct {
	Point    *Date
	From, To *Date
	IsRange  bool
}

// ClockValue is the time-facet counterpart of DateValue.
type ClockValue struct {
	Point    *Clock
	From, To *Clock
	IsRange  bool
}

func parseStamp(text string) (time.Time, error) {
	ts, err := dateparse.ParseAny(text)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse timestamp %q: %w", text, err)
	}
	return ts, nil
}

func toDate(ts time.Time) *Date {
	return &Date{Year: ts.Year(), Month: ts.Month(), Day: ts.Day()}
}

func toClock(ts time.Time) *Clock {
	return &Clock{Hour: ts.Hour(), Minute: ts.Minute(), Second: ts.Second()}
}

func isMidnight(ts time.Time) bool {
	return ts.Hour() == 0 && ts.Minute() == 0
}

// ParseDates extracts the date facet of every value record in the entity.
// Interval values get the midnight-rollover correction: an interval ending
// exactly one calendar day after it starts, at 00:00, collapses to the start
// date ("today 6pm to tomorrow midnight" is a single date).
func ParseDates(ent entity.Entity) ([]DateValue, error) {
	out := make([]DateValue, 0, len(ent.Values))
	for _, v := range ent.Values {
		switch v.Kind {
		case entity.KindValue:
			ts, err := parseStamp(v.Text)
			if err != nil {
				return nil, err
			}
			out = append(out, DateValue{Point: toDate(ts)})
		case entity.KindInterval:
			dv := DateValue{IsRange: true}
			var fromTs, toTs time.Time
			var haveFrom, haveTo bool
			if v.Span.From != "" {
				ts, err := parseStamp(v.Span.From)
				if err != nil {
					return nil, err
				}
				fromTs, haveFrom = ts, true
				dv.From = toDate(ts)
			}
			if v.Span.To != "" {
				ts, err := parseStamp(v.Span.To)
				if err != nil {
					return nil, err
				}
				toTs, haveTo = ts, true
				dv.To = toDate(ts)
			}
			if haveFrom && haveTo && isMidnight(toTs) && daysBetween(fromTs, toTs) == 1 {
				dv.To = dv.From
			}
			out = append(out, dv)
		default:
			return nil, errors.NewUnsupportedValueKindError(string(v.Kind))
		}
	}
	return out, nil
}

func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

// ParseClocks extracts the time facet of every value record in the entity.
func ParseClocks(ent entity.Entity) ([]ClockValue, error) {
	out := make([]ClockValue, 0, len(ent.Values))
	for _, v := range ent.Values {
		switch v.Kind {
		case entity.KindValue:
			ts, err := parseStamp(v.Text)
			if err != nil {
				return nil, err
			}
			out = append(out, ClockValue{Point: toClock(ts)})
		case entity.KindInterval:
			cv := ClockValue{IsRange: true}
			if v.Span.From != "" {
				ts, err := parseStamp(v.Span.From)
				if err != nil {
					return nil, err
				}
				cv.From = toClock(ts)
			}
			if v.Span.To != "" {
				ts, err := parseStamp(v.Span.To)
				if err != nil {
					return nil, err
				}
				cv.To = toClock(ts)
			}
			out = append(out, cv)
		default:
			return nil, errors.NewUnsupportedValueKindError(string(v.Kind))
		}
	}
	return out, nil
}

func datesEqual(a, b *Date) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func clocksEqual(a, b *Clock) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// collapseRange reduces an interval to a single date when that is
// unambiguous: equal bounds collapse to either, a one-sided interval
// collapses to its present bound, and distinct bounds collapse to nothing.
func collapseRange(dv DateValue) *Date {
	if datesEqual(dv.From, dv.To) {
		return dv.From
	}
	if dv.From == nil {
		return dv.To
	}
	if dv.To == nil {
		return dv.From
	}
	return nil
}

func dateValueMatch(td, pd DateValue) bool {
	switch {
	case td.IsRange && pd.IsRange:
		return datesEqual(td.From, pd.From) && datesEqual(td.To, pd.To)
	case !td.IsRange && !pd.IsRange:
		return datesEqual(td.Point, pd.Point)
	default:
		point, rng := td.Point, pd
		if td.IsRange {
			point, rng = pd.Point, td
		}
		collapsed := collapseRange(rng)
		if collapsed == nil {
			// Ambiguous point-vs-range comparison; never guess.
			return false
		}
		return datesEqual(point, collapsed)
	}
}

// DateEq reports whether the date facets of truth and prediction agree.
// Values are compared positionally after a count check.
func DateEq(truth, pred entity.Entity) (bool, error) {
	trueDates, err := ParseDates(truth)
	if err != nil {
		return false, err
	}
	predDates, err := ParseDates(pred)
	if err != nil {
		return false, err
	}

	if len(trueDates) != len(predDates) {
		return false, nil
	}
	for i := range trueDates {
		if !dateValueMatch(trueDates[i], predDates[i]) {
			return false, nil
		}
	}
	return true, nil
}

func clockValueMatch(tc, pc ClockValue) bool {
	if tc.IsRange != pc.IsRange {
		// A point against an interval (including one-sided intervals)
		// stays unresolved and counts as not equal.
		return false
	}
	if tc.IsRange {
		return clocksEqual(tc.From, pc.From) && clocksEqual(tc.To, pc.To)
	}
	return clocksEqual(tc.Point, pc.Point)
}

// TimeEq reports whether the time facets of truth and prediction agree.
func TimeEq(truth, pred entity.Entity) (bool, error) {
	trueTimes, err := ParseClocks(truth)
	if err != nil {
		return false, err
	}
	predTimes, err := ParseClocks(pred)
	if err != nil {
		return false, err
	}

	if len(trueTimes) != len(predTimes) {
		return false, nil
	}
	for i := range trueTimes {
		if !clockValueMatch(trueTimes[i], predTimes[i]) {
			return false, nil
		}
	}
	return true, nil
}

// DatetimeEq compares the raw value payloads of two datetime entities.
func DatetimeEq(a, b entity.Entity) bool {
	if len(a.Values) != len(b.Values) {
		return false
	}
	for i := range a.Values {
		if !entity.ValueEqual(a.Values[i], b.Values[i]) {
			return false
		}
	}
	return true
}

// DateEqLists compares the date parts of truth and prediction lists. Truth
// is expected to carry at most one relevant entity; absence of a date-bearing
// prediction is required when the truth is absent.
func DateEqLists(truth, pred []entity.Entity) (bool, error) {
	var dateEnt *entity.Entity
	for i := range pred {
		if pred[i].Type == "datetime" || pred[i].Type == "date" {
			dateEnt = &pred[i]
			break
		}
	}

	if len(truth) == 0 {
		return dateEnt == nil, nil
	}
	if dateEnt == nil {
		return false, nil
	}
	return DateEq(truth[0], *dateEnt)
}

// TimeEqLists runs a full comparison between truth and prediction lists,
// partitioning point values and intervals and requiring both partitions to
// match independently.
func TimeEqLists(truth, pred []entity.Entity) (bool, error) {
	truthPoints, truthRanges, err := extractClockSets(truth)
	if err != nil {
		return false, err
	}
	predPoints, predRanges, err := extractClockSets(pred)
	if err != nil {
		return false, err
	}

	if len(truthPoints) == 0 && len(truthRanges) == 0 {
		return len(predPoints) == 0 && len(predRanges) == 0, nil
	}

	if len(predPoints) != len(truthPoints) || len(predRanges) != len(truthRanges) {
		return false, nil
	}
	for k := range predPoints {
		if _, ok := truthPoints[k]; !ok {
			return false, nil
		}
	}
	for k := range predRanges {
		if _, ok := truthRanges[k]; !ok {
			return false, nil
		}
	}
	return true, nil
}

func extractClockSets(ents []entity.Entity) (map[Clock]struct{}, map[string]struct{}, error) {
	points := make(map[Clock]struct{})
	ranges := make(map[string]struct{})

	for _, ent := range ents {
		if ent.Type != "datetime" && ent.Type != "time" {
			continue
		}
		first, ok := ent.First()
		if !ok {
			continue
		}
		switch first.Kind {
		case entity.KindValue, entity.KindInterval:
			clocks, err := ParseClocks(ent)
			if err != nil {
				return nil, nil, err
			}
			for _, cv := range clocks {
				if cv.IsRange {
					ranges[rangeKey(cv)] = struct{}{}
				} else if cv.Point != nil {
					points[*cv.Point] = struct{}{}
				}
			}
		default:
			return nil, nil, errors.NewUnsupportedValueKindError(string(first.Kind))
		}
	}
	return points, ranges, nil
}

func rangeKey(cv ClockValue) string {
	format := func(c *Clock) string {
		if c == nil {
			return "-"
		}
		return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
	}
	return format(cv.From) + "/" + format(cv.To)
}

// DatetimeEqLists tells whether the prediction list carries the same
// datetime as the truth. When the prediction has no datetime entity, the
// first date and time entities are merged into one before comparing.
func DatetimeEqLists(truth, pred []entity.Entity) (bool, error) {
	dtEnt, err := datetimeFromList(pred)
	if err != nil {
		return false, err
	}

	if len(truth) == 0 {
		return dtEnt == nil, nil
	}
	if dtEnt == nil {
		return false, nil
	}
	return DatetimeEq(truth[0], *dtEnt), nil
}

func datetimeFromList(ents []entity.Entity) (*entity.Entity, error) {
	if len(ents) > 0 && ents[0].Type == "datetime" {
		return &ents[0], nil
	}

	var timeEnt, dateEnt *entity.Entity
	for i := range ents {
		switch ents[i].Type {
		case "time":
			if timeEnt == nil {
				timeEnt = &ents[i]
			}
		case "date":
			if dateEnt == nil {
				dateEnt = &ents[i]
			}
		}
	}
	if timeEnt == nil || dateEnt == nil {
		return nil, nil
	}
	merged, err := MergeDateAndTime(*timeEnt, *dateEnt)
	if err != nil {
		return nil, err
	}
	return &merged, nil
}

// MergeDateAndTime attaches the date entity's first date to every value of
// the time entity, producing a synthetic datetime entity. Grain and other
// annotations are not adjusted.
func MergeDateAndTime(timeEnt, dateEnt entity.Entity) (entity.Entity, error) {
	dates, err := ParseDates(dateEnt)
	if err != nil {
		return entity.Entity{}, err
	}
	if len(dates) == 0 {
		return entity.Entity{}, fmt.Errorf("no dates found in %q entity", dateEnt.Type)
	}

	date := dates[0].Point
	if dates[0].IsRange {
		date = dates[0].From
	}
	if date == nil {
		return entity.Entity{}, fmt.Errorf("cannot pick a date from %q entity", dateEnt.Type)
	}

	merged := entity.Entity{Type: "datetime", Values: make([]entity.ValueRecord, 0, len(timeEnt.Values))}
	for _, v := range timeEnt.Values {
		switch v.Kind {
		case entity.KindValue:
			replaced, err := replaceDate(v.Text, *date)
			if err != nil {
				return entity.Entity{}, err
			}
			nv := v
			nv.Text = replaced
			merged.Values = append(merged.Values, nv)
		case entity.KindInterval:
			nv := v
			if v.Span.From != "" {
				replaced, err := replaceDate(v.Span.From, *date)
				if err != nil {
					return entity.Entity{}, err
				}
				nv.Span.From = replaced
			}
			if v.Span.To != "" {
				replaced, err := replaceDate(v.Span.To, *date)
				if err != nil {
					return entity.Entity{}, err
				}
				nv.Span.To = replaced
			}
			merged.Values = append(merged.Values, nv)
		default:
			return entity.Entity{}, errors.NewUnsupportedValueKindError(string(v.Kind))
		}
	}
	return merged, nil
}

// replaceDate applies the date onto an ISO timestamp string and returns a
// new ISO string.
func replaceDate(iso string, d Date) (string, error) {
	ts, err := parseStamp(iso)
	if err != nil {
		return "", err
	}
	replaced := time.Date(d.Year, d.Month, d.Day, ts.Hour(), ts.Minute(), ts.Second(), ts.Nanosecond(), ts.Location())
	return replaced.Format(time.RFC3339), nil
}
