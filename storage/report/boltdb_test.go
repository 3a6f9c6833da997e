package report_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/sreekar2307/clusterhealth/model"
	"github.com/sreekar2307/clusterhealth/storage/errors"
	"github.com/sreekar2307/clusterhealth/storage/report"
)

func openBolt(t *testing.T, retention int) *report.Bolt {
	t.Helper()
	b := report.NewBolt(filepath.Join(t.TempDir(), "reports.db"), retention, noop.NewTracerProvider().Tracer("test"))
	require.NoError(t, b.Open(context.Background()))
	t.Cleanup(func() { _ = b.Close(context.Background()) })
	return b
}

func reportWithBrokers(n int) *model.HealthReport {
	return &model.HealthReport{
		Status:              model.Yellow,
		Brokers:             n,
		Topics:              1,
		OutOfSyncPartitions: []model.PartitionDetail{{Topic: "orders", Replicas: []int{1, 2}, ISR: []int{1}}},
	}
}

func TestBolt(t *testing.T) {
	t.Parallel()

	t.Run("append then list newest first", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		b := openBolt(t, 10)
		start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
		for i := 1; i <= 3; i++ {
			record, err := b.Append(ctx, start.Add(time.Duration(i)*time.Minute), reportWithBrokers(i))
			require.NoError(t, err)
			require.EqualValues(t, i, record.ID)
		}

		records, err := b.List(ctx, 2)
		require.NoError(t, err)
		require.Len(t, records, 2)
		require.EqualValues(t, 3, records[0].ID)
		require.Equal(t, 3, records[0].Report.Brokers)
		require.Equal(t, model.Yellow, records[0].Report.Status)
		require.Equal(t, start.Add(3*time.Minute), records[0].CheckedAt)
		require.EqualValues(t, 2, records[1].ID)
		require.Equal(t, []int{1}, records[1].Report.OutOfSyncPartitions[0].ISR)
	})

	t.Run("prunes beyond retention", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		b := openBolt(t, 2)
		for i := 1; i <= 5; i++ {
			_, err := b.Append(ctx, time.Now(), reportWithBrokers(i))
			require.NoError(t, err)
		}

		records, err := b.List(ctx, 10)
		require.NoError(t, err)
		require.Len(t, records, 2)
		require.EqualValues(t, 5, records[0].ID)
		require.EqualValues(t, 4, records[1].ID)
	})

	t.Run("empty history", func(t *testing.T) {
		t.Parallel()

		records, err := openBolt(t, 2).List(context.Background(), 5)
		require.NoError(t, err)
		require.Empty(t, records)
	})

	t.Run("rejects non positive limits", func(t *testing.T) {
		t.Parallel()

		_, err := openBolt(t, 2).List(context.Background(), 0)
		require.ErrorIs(t, err, errors.ErrInvalidLimit)
	})

	t.Run("fails before open", func(t *testing.T) {
		t.Parallel()

		b := report.NewBolt(filepath.Join(t.TempDir(), "reports.db"), 1, noop.NewTracerProvider().Tracer("test"))
		_, err := b.Append(context.Background(), time.Now(), reportWithBrokers(1))
		require.ErrorIs(t, err, errors.ErrStorageNotOpen)
		require.NoError(t, b.Close(context.Background()))
	})
}
