// Package evaluator turns a cluster metadata snapshot into a health report.
package evaluator

import (
	"github.com/sreekar2307/clusterhealth/model"
	"github.com/sreekar2307/clusterhealth/util"
)

// Evaluate classifies the snapshot. A partition with no in-sync replica makes
// the cluster Red; otherwise any partition with fewer in-sync replicas than
// assigned replicas makes it Yellow. Every such partition is listed in input
// order, including the ones that caused Red.
//
// Evaluate has no side effects and does not modify the snapshot.
func Evaluate(snapshot *model.ClusterSnapshot) *model.HealthReport {
	report := &model.HealthReport{
		Status:              model.Green,
		Brokers:             len(snapshot.Brokers),
		Topics:              len(snapshot.Topics),
		OutOfSyncPartitions: make([]model.PartitionDetail, 0),
	}
	for _, topic := range snapshot.Topics {
		for _, partition := range topic.Partitions {
			if partition.Offline() {
				report.Status = model.Red
			}
			if partition.UnderReplicated() {
				report.OutOfSyncPartitions = append(report.OutOfSyncPartitions, model.PartitionDetail{
					Topic:     topic.Name,
					Partition: partition.ID,
					Replicas:  util.Copy(partition.Replicas),
					ISR:       util.Copy(partition.ISR),
				})
			}
		}
	}
	if len(report.OutOfSyncPartitions) > 0 {
		report.Status = model.Worse(report.Status, model.Yellow)
	}
	return report
}
