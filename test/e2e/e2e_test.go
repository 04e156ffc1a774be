package e2e

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conveval/internal/common/logger"
	"conveval/internal/dataset"
	"conveval/internal/entity/eval"
	"conveval/internal/intents"
	"conveval/internal/metrics"
)

// Full pipeline runs over temp CSV files: read, join on id, score. Mirrors
// what cmd/conveval does per subcommand, without the flag plumbing.

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func joinCSVs(t *testing.T, truePath, predPath string) []dataset.JoinedRow {
	t.Helper()
	truth, err := dataset.ReadCSV(truePath, "id")
	require.NoError(t, err)
	pred, err := dataset.ReadCSV(predPath, "id")
	require.NoError(t, err)
	joined, err := dataset.JoinOnID(truth, pred)
	require.NoError(t, err)
	return joined
}

func TestIntentPipeline(t *testing.T) {
	dir := t.TempDir()
	truePath := writeFile(t, dir, "true.csv",
		"id,intent\n1,greet\n2,greet\n3,bye\n4,check_balance\n")
	predPath := writeFile(t, dir, "pred.csv",
		"id,intent\n1,greet\n2,bye\n3,bye\n4,check_balance\n")

	joined := joinCSVs(t, truePath, predPath)
	yTrue, yPred := dataset.Pairs(joined, "intent", "intent")

	report := intents.Report(yTrue, yPred)
	require.Len(t, report, 3)

	byLabel := make(map[string]metrics.LabelMetrics)
	for _, row := range report {
		byLabel[row.Label] = row
	}
	assert.Equal(t, 2, byLabel["greet"].Support)
	assert.Equal(t, 0.5, byLabel["greet"].Recall)
	assert.Equal(t, 1.0, byLabel["check_balance"].F1)
}

func TestGroupedIntentPipeline(t *testing.T) {
	dir := t.TempDir()
	groupsPath := writeFile(t, dir, "groups.yaml",
		"smalltalk:\n  - greet\n  - bye\n")
	truePath := writeFile(t, dir, "true.csv", "id,intent\n1,greet\n2,check_balance\n")
	predPath := writeFile(t, dir, "pred.csv", "id,intent\n1,greet\n2,check_balance\n")

	groups, err := intents.LoadGroups(groupsPath)
	require.NoError(t, err)

	joined := joinCSVs(t, truePath, predPath)
	yTrue, yPred := dataset.Pairs(joined, "intent", "intent")

	report := intents.GroupedReport(yTrue, yPred, groups)
	require.Len(t, report, 2)
	assert.Equal(t, intents.InScopeGroup, report[0].Group)
	assert.Equal(t, 1, report[0].Support)
	assert.Equal(t, "smalltalk", report[1].Group)
	assert.Equal(t, 1.0, report[1].F1)
}

func TestEntityPipeline(t *testing.T) {
	const dateApril25 = `[{"type": "date", "values": [{"type": "value", "value": "2019-04-25T00:00:00+05:30"}]}]`
	const dateApril22 = `[{"type": "date", "values": [{"type": "value", "value": "2019-04-22T00:00:00+05:30"}]}]`

	dir := t.TempDir()
	truePath := writeFile(t, dir, "true.csv",
		"id,entities\n1,\""+escapeQuotes(dateApril25)+"\"\n2,\""+escapeQuotes(dateApril25)+"\"\n")
	predPath := writeFile(t, dir, "pred.csv",
		"id,entities\n1,\""+escapeQuotes(dateApril25)+"\"\n2,\""+escapeQuotes(dateApril22)+"\"\n")

	joined := joinCSVs(t, truePath, predPath)
	rows := make([]eval.Row, 0, len(joined))
	for _, jr := range joined {
		rows = append(rows, eval.Row{ID: jr.ID, TrueJSON: jr.Truth["entities"], PredJSON: jr.Pred["entities"]})
	}

	engine := eval.NewEngine(logger.NewTestLogger(t))
	report, err := engine.Report(context.Background(), rows, false)
	require.NoError(t, err)
	require.Len(t, report, 1)

	row := report[0]
	assert.Equal(t, "date", row.EntityType)
	assert.Equal(t, 2, row.Support)
	assert.Equal(t, 0.0, row.FalseNegativeRate)
	assert.Equal(t, 0.5, row.MismatchRate)
}

func TestEntityPipelineWithDump(t *testing.T) {
	const timePayload = `[{"type": "time", "values": [{"type": "value", "value": "2019-04-25T09:20:00+05:30"}]}]`

	dir := t.TempDir()
	rows := []eval.Row{{ID: "1", TrueJSON: timePayload, PredJSON: ""}}

	sink := &eval.FileSink{Dir: dir}
	engine := eval.NewEngine(logger.NewTestLogger(t), sink)
	_, err := engine.Report(context.Background(), rows, true)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "fn.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "time")
}

func TestASRPipeline(t *testing.T) {
	dir := t.TempDir()
	truePath := writeFile(t, dir, "true.csv",
		"id,transcription\n1,hello world\n2,good morning\n")
	predPath := writeFile(t, dir, "pred.csv",
		"id,prediction\n1,hello world\n2,good evening\n")

	joined := joinCSVs(t, truePath, predPath)
	yTrue, yPred := dataset.Pairs(joined, "transcription", "prediction")

	all := make([]metrics.Measures, 0, len(yTrue))
	for i := range yTrue {
		all = append(all, metrics.ComputeMeasures(yTrue[i], yPred[i], nil))
	}

	agg := metrics.AggregateMeasures(all)
	assert.InDelta(t, 0.25, agg.WER, 1e-9)
	assert.Equal(t, 3, agg.Hits)
	assert.Equal(t, 1, agg.Substitutions)
}

func escapeQuotes(s string) string {
	out := make([]byte, 0, len(s)*2)
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			out = append(out, '"')
		}
		out = append(out, s[i])
	}
	return string(out)
}
