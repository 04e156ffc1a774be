package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conveval/internal/common/errors"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "labels.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCSV(t *testing.T) {
	path := writeCSV(t, "id,intent\n1,greet\n2,bye\n")

	table, err := ReadCSV(path, "id")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "intent"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "greet", table.Rows[0]["intent"])
	assert.Equal(t, "2", table.Rows[1]["id"])
}

func TestReadCSVTrimsHeader(t *testing.T) {
	path := writeCSV(t, " id , intent \n1,greet\n")

	table, err := ReadCSV(path, "id")
	require.NoError(t, err)
	assert.True(t, table.Column("intent"))
	assert.False(t, table.Column("missing"))
}

func TestReadCSVRaggedRows(t *testing.T) {
	path := writeCSV(t, "id,intent,entities\n1,greet\n")

	table, err := ReadCSV(path, "id")
	require.NoError(t, err)
	assert.Equal(t, "", table.Rows[0]["entities"])
}

func TestReadCSVMissingIDColumn(t *testing.T) {
	path := writeCSV(t, "uuid,intent\n1,greet\n")

	_, err := ReadCSV(path, "id")
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeDatasetColumnMissing, stdErr.Code)
}

func TestReadCSVMissingFile(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "absent.csv"), "id")
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeDatasetReadFailed, stdErr.Code)
}

func TestJoinOnID(t *testing.T) {
	truth := &LabelTable{
		IDColumn: "id",
		Rows: []map[string]string{
			{"id": "1", "intent": "greet"},
			{"id": "2", "intent": "bye"},
			{"id": "3", "intent": "help"},
		},
	}
	pred := &LabelTable{
		IDColumn: "id",
		Rows: []map[string]string{
			{"id": "2", "intent": "bye"},
			{"id": "1", "intent": "greet"},
		},
	}

	joined, err := JoinOnID(truth, pred)
	require.NoError(t, err)
	require.Len(t, joined, 2)
	assert.Equal(t, "1", joined[0].ID)
	assert.Equal(t, "2", joined[1].ID)
	assert.Equal(t, "bye", joined[1].Pred["intent"])
}

func TestJoinOnIDDuplicatesKeepFirst(t *testing.T) {
	truth := &LabelTable{
		IDColumn: "id",
		Rows:     []map[string]string{{"id": "1", "intent": "greet"}},
	}
	pred := &LabelTable{
		IDColumn: "id",
		Rows: []map[string]string{
			{"id": "1", "intent": "first"},
			{"id": "1", "intent": "second"},
		},
	}

	joined, err := JoinOnID(truth, pred)
	require.NoError(t, err)
	require.Len(t, joined, 1)
	assert.Equal(t, "first", joined[0].Pred["intent"])
}

func TestJoinOnIDEmptyJoin(t *testing.T) {
	truth := &LabelTable{
		IDColumn: "id",
		Rows:     []map[string]string{{"id": "1"}},
	}
	pred := &LabelTable{
		IDColumn: "id",
		Rows:     []map[string]string{{"id": "2"}},
	}

	_, err := JoinOnID(truth, pred)
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeDatasetEmptyJoin, stdErr.Code)
}

func TestPairs(t *testing.T) {
	rows := []JoinedRow{
		{ID: "1", Truth: map[string]string{"intent": "greet"}, Pred: map[string]string{"intent": "bye"}},
		{ID: "2", Truth: map[string]string{"intent": "bye"}, Pred: map[string]string{}},
	}

	yTrue, yPred := Pairs(rows, "intent", "intent")
	assert.Equal(t, []string{"greet", "bye"}, yTrue)
	assert.Equal(t, []string{"bye", ""}, yPred)
}
