// Package intents scores intent classification runs, optionally rolled up
// into named intent groups loaded from a YAML file.
package intents

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"conveval/internal/common/errors"
	"conveval/internal/metrics"
)

// InScopeGroup collects every intent not claimed by a configured group.
const InScopeGroup = "in_scope"

// Groups maps a group alias to the intents it covers.
type Groups map[string][]string

// LoadGroups reads an intent grouping file. The file maps group aliases to
// intent name lists.
func LoadGroups(path string) (Groups, error) {
	v := viper.New()
	v.SetConfigFile(path)
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext != "" {
		v.SetConfigType(ext)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.NewIntentGroupsFailedError(path, err)
	}

	groups := make(Groups)
	for _, key := range v.AllKeys() {
		groups[key] = v.GetStringSlice(key)
	}
	if len(groups) == 0 {
		return nil, errors.NewIntentGroupsFailedError(path, nil)
	}
	return groups, nil
}

// GroupMetrics is the weighted summary of one intent group.
type GroupMetrics struct {
	Group     string  `json:"group"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1-score"`
	Support   int     `json:"support"`
}

// Report produces a per-intent classification report over paired truth and
// prediction labels.
func Report(yTrue, yPred []string) []metrics.LabelMetrics {
	return metrics.ClassificationReport(yTrue, yPred)
}

// withInScope copies the grouping and adds the computed in-scope group
// holding every observed intent no configured group claims.
func withInScope(yTrue, yPred []string, groups Groups) Groups {
	claimed := make(map[string]struct{})
	for _, intents := range groups {
		for _, name := range intents {
			claimed[name] = struct{}{}
		}
	}

	inScope := make([]string, 0)
	seen := make(map[string]struct{})
	for _, name := range append(append([]string(nil), yTrue...), yPred...) {
		if _, ok := claimed[name]; ok {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		inScope = append(inScope, name)
	}
	sort.Strings(inScope)

	out := make(Groups, len(groups)+1)
	for alias, intents := range groups {
		out[alias] = intents
	}
	out[InScopeGroup] = inScope
	return out
}

// GroupedReport summarizes each intent group with support-weighted scores.
// Support counts truth labels belonging to the group. Rows come back sorted
// by group alias.
func GroupedReport(yTrue, yPred []string, groups Groups) []GroupMetrics {
	full := withInScope(yTrue, yPred, groups)

	aliases := make([]string, 0, len(full))
	for alias := range full {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	out := make([]GroupMetrics, 0, len(aliases))
	for _, alias := range aliases {
		members := full[alias]
		p, r, f1, _ := metrics.WeightedScores(yTrue, yPred, members)

		memberSet := make(map[string]struct{}, len(members))
		for _, name := range members {
			memberSet[name] = struct{}{}
		}
		support := 0
		for _, name := range yTrue {
			if _, ok := memberSet[name]; ok {
				support++
			}
		}

		out = append(out, GroupMetrics{
			Group:     alias,
			Precision: p,
			Recall:    r,
			F1:        f1,
			Support:   support,
		})
	}
	return out
}

// BreakdownReport produces one label-restricted classification report per
// intent group, including the computed in-scope group.
func BreakdownReport(yTrue, yPred []string, groups Groups) map[string][]metrics.LabelMetrics {
	full := withInScope(yTrue, yPred, groups)

	out := make(map[string][]metrics.LabelMetrics, len(full))
	for alias, members := range full {
		out[alias] = metrics.ClassificationReportForLabels(yTrue, yPred, members)
	}
	return out
}
