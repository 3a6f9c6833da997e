package report

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	boltDB "go.etcd.io/bbolt"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/sreekar2307/clusterhealth/model"
	"github.com/sreekar2307/clusterhealth/storage/errors"
)

const reportsBucketKey = "reports"

type Bolt struct {
	db        *boltDB.DB
	dbPath    string
	retention int
	tracer    trace.Tracer
}

func NewBolt(dbPath string, retention int, tracer trace.Tracer) *Bolt {
	return &Bolt{
		dbPath:    dbPath,
		retention: retention,
		tracer:    tracer,
	}
}

func (b *Bolt) Open(_ context.Context) error {
	newDB, err := boltDB.Open(b.dbPath, 0o600, &boltDB.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := newDB.Update(func(tx *boltDB.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(reportsBucketKey))
		return err
	}); err != nil {
		_ = newDB.Close()
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	b.db = newDB
	return nil
}

func (b *Bolt) Close(_ context.Context) error {
	if b.db == nil {
		return nil
	}
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

func (b *Bolt) startSpan(ctx context.Context, name, operation string) (context.Context, trace.Span) {
	return b.tracer.Start(
		ctx,
		name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			semconv.DBSystemNameKey.String("boltdb"),
			semconv.DBNamespaceKey.String(b.dbPath),
			semconv.DBCollectionNameKey.String(reportsBucketKey),
			semconv.DBOperationNameKey.String(operation),
		),
	)
}

func (b *Bolt) Append(ctx context.Context, checkedAt time.Time, report *model.HealthReport) (*model.ReportRecord, error) {
	_, span := b.startSpan(ctx, "AppendReport", "PUT")
	defer span.End()
	if b.db == nil {
		span.RecordError(errors.ErrStorageNotOpen)
		return nil, errors.ErrStorageNotOpen
	}
	record := &model.ReportRecord{
		CheckedAt: checkedAt.UTC(),
		Report:    *report,
	}
	err := b.db.Update(func(tx *boltDB.Tx) error {
		bucket := tx.Bucket([]byte(reportsBucketKey))
		id, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to get next sequence: %w", err)
		}
		record.ID = id
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		if err := bucket.Put(binary.BigEndian.AppendUint64(nil, id), data); err != nil {
			return fmt.Errorf("failed to put report: %w", err)
		}
		return b.prune(bucket)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return record, nil
}

// prune deletes the oldest records until at most retention remain.
func (b *Bolt) prune(bucket *boltDB.Bucket) error {
	if b.retention <= 0 {
		return nil
	}
	var (
		kept  int
		stale [][]byte
	)
	c := bucket.Cursor()
	for k, _ := c.Last(); k != nil; k, _ = c.Prev() {
		if kept < b.retention {
			kept++
			continue
		}
		stale = append(stale, append([]byte(nil), k...))
	}
	for _, k := range stale {
		if err := bucket.Delete(k); err != nil {
			return fmt.Errorf("failed to prune report: %w", err)
		}
	}
	return nil
}

func (b *Bolt) List(ctx context.Context, limit int) ([]*model.ReportRecord, error) {
	_, span := b.startSpan(ctx, "ListReports", "GET")
	defer span.End()
	if limit <= 0 {
		span.RecordError(errors.ErrInvalidLimit)
		return nil, errors.ErrInvalidLimit
	}
	if b.db == nil {
		span.RecordError(errors.ErrStorageNotOpen)
		return nil, errors.ErrStorageNotOpen
	}
	records := make([]*model.ReportRecord, 0, limit)
	err := b.db.View(func(tx *boltDB.Tx) error {
		c := tx.Bucket([]byte(reportsBucketKey)).Cursor()
		for k, v := c.Last(); k != nil && len(records) < limit; k, v = c.Prev() {
			record := new(model.ReportRecord)
			if err := json.Unmarshal(v, record); err != nil {
				return fmt.Errorf("failed to unmarshal report: %w", err)
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return records, nil
}
