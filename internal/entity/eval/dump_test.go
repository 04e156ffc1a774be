package eval

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conveval/internal/common/database"
	"conveval/internal/common/logger"
)

func readDumpCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestFileSinkWritesBuckets(t *testing.T) {
	dir := t.TempDir()
	engine := NewEngine(logger.NewTestLogger(t), &FileSink{Dir: dir})

	rows := []Row{
		{ID: "1", TrueJSON: dateApril25, PredJSON: dateApril25},
		{ID: "2", TrueJSON: dateApril25, PredJSON: dateApril22},
		{ID: "3", TrueJSON: dateApril25, PredJSON: ""},
		{ID: "4", TrueJSON: dateApril25, PredJSON: timeApril25},
	}

	_, err := engine.Report(context.Background(), rows, true)
	require.NoError(t, err)

	fp := readDumpCSV(t, filepath.Join(dir, "fp.csv"))
	require.Len(t, fp, 2)
	assert.Equal(t, []string{"id", "entity_type", "true_entities", "pred_entities"}, fp[0])
	assert.Equal(t, "4", fp[1][0])
	assert.Equal(t, "time", fp[1][1])

	fn := readDumpCSV(t, filepath.Join(dir, "fn.csv"))
	require.Len(t, fn, 3)

	mm := readDumpCSV(t, filepath.Join(dir, "mm.csv"))
	require.Len(t, mm, 2)
	assert.Equal(t, "2", mm[1][0])
}

func TestFileSinkSkippedWithoutDumpFlag(t *testing.T) {
	dir := t.TempDir()
	engine := NewEngine(logger.NewTestLogger(t), &FileSink{Dir: dir})

	rows := []Row{
		{ID: "1", TrueJSON: dateApril25, PredJSON: dateApril22},
	}

	_, err := engine.Report(context.Background(), rows, false)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "mm.csv"))
	assert.True(t, os.IsNotExist(statErr), "dump must be opt-in")
}

func TestPostgresSinkWritesRecords(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sink := NewPostgresSink(&database.PostgresClient{DB: db})

	mock.ExpectExec("INSERT INTO entity_error_dump").
		WithArgs(sink.RunID, "mm", "2", "date", dateApril25, dateApril22).
		WillReturnResult(sqlmock.NewResult(1, 1))

	records := []DumpRecord{
		{ID: "2", EntityType: "date", TrueEntities: dateApril25, PredEntities: dateApril22},
	}
	err = sink.WriteBucket(context.Background(), "mm", records)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSinkPropagatesErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sink := NewPostgresSink(&database.PostgresClient{DB: db})

	mock.ExpectExec("INSERT INTO entity_error_dump").
		WillReturnError(assert.AnError)

	err = sink.WriteBucket(context.Background(), "fp", []DumpRecord{{ID: "1"}})
	assert.Error(t, err)
}
