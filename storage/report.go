package storage

import (
	"context"
	"time"

	"github.com/sreekar2307/clusterhealth/model"
)

type ReportStorage interface {
	Open(context.Context) error
	Close(context.Context) error

	// Append stores the report and prunes records beyond the retention limit.
	Append(context.Context, time.Time, *model.HealthReport) (*model.ReportRecord, error)
	// List returns up to limit records, newest first.
	List(context.Context, int) ([]*model.ReportRecord, error)
}
