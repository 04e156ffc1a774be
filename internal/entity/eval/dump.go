package eval

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"conveval/internal/common/database"
	"conveval/internal/common/errors"
	commonmetrics "conveval/internal/common/metrics"
)

// Bucket names for the error dump side-channel.
const (
	BucketFalsePositive = "fp"
	BucketFalseNegative = "fn"
	BucketMismatch      = "mm"
)

// DumpRecord is one contributing (row, entity type) pair, carrying the
// original payload columns without any derived comparison columns.
type DumpRecord struct {
	ID           string `json:"id"`
	EntityType   string `json:"entity_type"`
	TrueEntities string `json:"true_entities"`
	PredEntities string `json:"pred_entities"`
}

// DumpSink receives the rows contributing to an error bucket. Writing is a
// pure side effect of reporting and must not alter any statistic.
type DumpSink interface {
	WriteBucket(ctx context.Context, bucket string, records []DumpRecord) error
}

type dumpRecorder struct {
	buckets map[string][]DumpRecord
}

func (d *dumpRecorder) add(bucket, entityType string, row Row) {
	if d.buckets == nil {
		d.buckets = make(map[string][]DumpRecord)
	}
	d.buckets[bucket] = append(d.buckets[bucket], DumpRecord{
		ID:           row.ID,
		EntityType:   entityType,
		TrueEntities: row.TrueJSON,
		PredEntities: row.PredJSON,
	})
}

func (d *dumpRecorder) flush(ctx context.Context, sinks []DumpSink) error {
	for _, bucket := range []string{BucketFalsePositive, BucketFalseNegative, BucketMismatch} {
		records := d.buckets[bucket]
		for _, sink := range sinks {
			if err := sink.WriteBucket(ctx, bucket, records); err != nil {
				return err
			}
		}
	}
	return nil
}

// FileSink writes each bucket to a flat CSV file (fp.csv, fn.csv, mm.csv)
// in the configured directory.
type FileSink struct {
	Dir string
}

func (s *FileSink) WriteBucket(_ context.Context, bucket string, records []DumpRecord) error {
	path := filepath.Join(s.Dir, bucket+".csv")
	f, err := os.Create(path)
	if err != nil {
		return errors.NewDumpWriteFailedError("file", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "entity_type", "true_entities", "pred_entities"}); err != nil {
		return errors.NewDumpWriteFailedError("file", err)
	}
	for _, rec := range records {
		if err := w.Write([]string{rec.ID, rec.EntityType, rec.TrueEntities, rec.PredEntities}); err != nil {
			return errors.NewDumpWriteFailedError("file", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.NewDumpWriteFailedError("file", err)
	}

	commonmetrics.DumpRowsWritten.WithLabelValues("file", bucket).Add(float64(len(records)))
	return nil
}

// PostgresSink inserts dump records into the entity_error_dump table for
// SQL-side inspection.
type PostgresSink struct {
	Client *database.PostgresClient
	RunID  string
}

func NewPostgresSink(client *database.PostgresClient) *PostgresSink {
	return &PostgresSink{Client: client, RunID: uuid.NewString()}
}

const insertDumpQuery = `INSERT INTO entity_error_dump (run_id, bucket, row_id, entity_type, true_entities, pred_entities) VALUES ($1, $2, $3, $4, $5, $6)`

func (s *PostgresSink) WriteBucket(ctx context.Context, bucket string, records []DumpRecord) error {
	for _, rec := range records {
		_, err := s.Client.Exec(ctx, insertDumpQuery,
			s.RunID, bucket, rec.ID, rec.EntityType, rec.TrueEntities, rec.PredEntities,
		)
		if err != nil {
			return errors.NewDumpWriteFailedError("postgres", err)
		}
	}

	commonmetrics.DumpRowsWritten.WithLabelValues("postgres", bucket).Add(float64(len(records)))
	return nil
}

// ElasticsearchSink indexes dump records for inspection through Kibana.
type ElasticsearchSink struct {
	Client *database.ElasticsearchClient
	Index  string
	RunID  string
}

func NewElasticsearchSink(client *database.ElasticsearchClient, index string) *ElasticsearchSink {
	return &ElasticsearchSink{Client: client, Index: index, RunID: uuid.NewString()}
}

func (s *ElasticsearchSink) WriteBucket(ctx context.Context, bucket string, records []DumpRecord) error {
	for i, rec := range records {
		doc := struct {
			DumpRecord
			RunID  string `json:"run_id"`
			Bucket string `json:"bucket"`
		}{DumpRecord: rec, RunID: s.RunID, Bucket: bucket}

		body, err := json.Marshal(doc)
		if err != nil {
			return errors.NewDumpWriteFailedError("elasticsearch", err)
		}

		docID := fmt.Sprintf("%s-%s-%d", s.RunID, bucket, i)
		if err := s.Client.Index(ctx, s.Index, docID, body); err != nil {
			return errors.NewDumpWriteFailedError("elasticsearch", err)
		}
	}

	commonmetrics.DumpRowsWritten.WithLabelValues("elasticsearch", bucket).Add(float64(len(records)))
	return nil
}
