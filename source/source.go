package source

import (
	"context"

	"github.com/sreekar2307/clusterhealth/model"
)

// MetadataSource fetches point-in-time cluster metadata. Failures wrap
// errors.ErrSnapshotUnavailable; a nil snapshot is never returned with a nil
// error.
type MetadataSource interface {
	Snapshot(context.Context) (*model.ClusterSnapshot, error)
	Close(context.Context) error
}
