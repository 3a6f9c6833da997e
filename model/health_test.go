package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sreekar2307/clusterhealth/model"
)

func TestHealthStatusText(t *testing.T) {
	t.Parallel()

	for _, status := range []model.HealthStatus{model.Green, model.Yellow, model.Red} {
		text, err := status.MarshalText()
		require.NoError(t, err)

		var got model.HealthStatus
		require.NoError(t, got.UnmarshalText(text))
		require.Equal(t, status, got)
	}

	_, err := model.HealthStatus(7).MarshalText()
	require.Error(t, err)

	var s model.HealthStatus
	require.Error(t, s.UnmarshalText([]byte("Purple")))
}

func TestWorse(t *testing.T) {
	t.Parallel()

	require.Equal(t, model.Red, model.Worse(model.Red, model.Yellow))
	require.Equal(t, model.Yellow, model.Worse(model.Green, model.Yellow))
	require.Equal(t, model.Green, model.Worse(model.Green, model.Green))
}

func TestHealthReportJSONWithoutEvaluation(t *testing.T) {
	t.Parallel()

	body, err := json.Marshal(&model.HealthReport{Status: model.Yellow, Brokers: 1})
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"Yellow","brokers":1,"topics":0,"out_of_sync_partitions":null}`, string(body))
}

func TestPartitionPredicates(t *testing.T) {
	t.Parallel()

	p := model.Partition{Replicas: []int{1, 2}, ISR: []int{1}}
	require.True(t, p.UnderReplicated())
	require.False(t, p.Offline())

	p = model.Partition{Replicas: []int{1, 2}}
	require.True(t, p.UnderReplicated())
	require.True(t, p.Offline())
}

func TestSnapshotNumberOfPartitions(t *testing.T) {
	t.Parallel()

	s := model.ClusterSnapshot{Topics: []model.Topic{
		{Name: "a", Partitions: make([]model.Partition, 3)},
		{Name: "b", Partitions: make([]model.Partition, 2)},
	}}
	require.Equal(t, 5, s.NumberOfPartitions())
}
