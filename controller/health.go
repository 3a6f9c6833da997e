package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sreekar2307/clusterhealth/evaluator"
	"github.com/sreekar2307/clusterhealth/logger"
	"github.com/sreekar2307/clusterhealth/metrics"
	"github.com/sreekar2307/clusterhealth/model"
	"github.com/sreekar2307/clusterhealth/service/errors"
	"github.com/sreekar2307/clusterhealth/source"
	"github.com/sreekar2307/clusterhealth/storage"
)

// Health runs health checks against a cluster. It is safe for concurrent use.
type Health struct {
	source  source.MetadataSource
	history storage.ReportStorage
	metrics *metrics.Collector
	tracer  trace.Tracer
	log     logger.Logger
	now     func() time.Time

	mu         sync.Mutex
	lastStatus *model.HealthStatus
}

type Option func(*Health)

// WithHistory records every evaluated report in s.
func WithHistory(s storage.ReportStorage) Option {
	return func(h *Health) { h.history = s }
}

func WithClock(now func() time.Time) Option {
	return func(h *Health) { h.now = now }
}

func NewHealth(
	src source.MetadataSource,
	collector *metrics.Collector,
	tracer trace.Tracer,
	log logger.Logger,
	opts ...Option,
) *Health {
	h := &Health{
		source:  src,
		metrics: collector,
		tracer:  tracer,
		log:     log.WithFields(logger.NewAttr("component", "health")),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Check fetches a metadata snapshot and evaluates it. When no snapshot can be
// obtained the error wraps errors.ErrSnapshotUnavailable and nothing is
// evaluated or recorded.
func (h *Health) Check(pCtx context.Context) (*model.HealthReport, error) {
	ctx, span := h.tracer.Start(pCtx, "HealthCheck", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	snapshot, err := h.fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "metadata unavailable")
		h.log.Error(ctx, "failed to fetch metadata", logger.NewAttr("error", err))
		return nil, err
	}

	_, evalSpan := h.tracer.Start(ctx, "Evaluate")
	report := evaluator.Evaluate(snapshot)
	evalSpan.SetAttributes(
		attribute.String("cluster.status", report.Status.String()),
		attribute.Int("cluster.brokers", report.Brokers),
		attribute.Int("cluster.topics", report.Topics),
		attribute.Int("cluster.out_of_sync_partitions", len(report.OutOfSyncPartitions)),
	)
	evalSpan.End()

	h.metrics.ObserveReport(report)
	h.noteStatus(ctx, report)
	if h.history != nil {
		if _, err := h.history.Append(ctx, h.now(), report); err != nil {
			h.log.Warn(ctx, "failed to record report", logger.NewAttr("error", err))
		}
	}
	return report, nil
}

func (h *Health) fetch(pCtx context.Context) (*model.ClusterSnapshot, error) {
	ctx, span := h.tracer.Start(pCtx, "FetchMetadata", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	start := h.now()
	snapshot, err := h.source.Snapshot(ctx)
	h.metrics.ObserveFetch(h.now().Sub(start), err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if snapshot == nil {
		return nil, fmt.Errorf("%w: empty response", errors.ErrSnapshotUnavailable)
	}
	span.SetAttributes(attribute.Int("cluster.partitions", snapshot.NumberOfPartitions()))
	return snapshot, nil
}

func (h *Health) noteStatus(ctx context.Context, report *model.HealthReport) {
	h.mu.Lock()
	prev := h.lastStatus
	status := report.Status
	h.lastStatus = &status
	h.mu.Unlock()

	attrs := []logger.Attr{
		logger.NewAttr("status", status.String()),
		logger.NewAttr("brokers", report.Brokers),
		logger.NewAttr("topics", report.Topics),
		logger.NewAttr("out_of_sync_partitions", len(report.OutOfSyncPartitions)),
	}
	if prev != nil && *prev != status {
		h.log.Warn(ctx, "cluster status changed", append(attrs, logger.NewAttr("previous", prev.String()))...)
		return
	}
	h.log.Debug(ctx, "cluster evaluated", attrs...)
}

// History returns up to limit stored reports, newest first.
func (h *Health) History(ctx context.Context, limit int) ([]*model.ReportRecord, error) {
	if h.history == nil {
		return nil, errors.ErrHistoryDisabled
	}
	records, err := h.history.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return records, nil
}

func (h *Health) Close(ctx context.Context) error {
	if err := h.source.Close(ctx); err != nil {
		return fmt.Errorf("failed to close metadata source: %w", err)
	}
	if h.history != nil {
		if err := h.history.Close(ctx); err != nil {
			return fmt.Errorf("failed to close report storage: %w", err)
		}
	}
	return nil
}
