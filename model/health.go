package model

import (
	"fmt"
)

type HealthStatus int

const (
	Green HealthStatus = iota
	Yellow
	Red
)

func (s HealthStatus) String() string {
	switch s {
	case Green:
		return "Green"
	case Yellow:
		return "Yellow"
	case Red:
		return "Red"
	default:
		return fmt.Sprintf("HealthStatus(%d)", int(s))
	}
}

func (s HealthStatus) MarshalText() ([]byte, error) {
	switch s {
	case Green, Yellow, Red:
		return []byte(s.String()), nil
	}
	return nil, fmt.Errorf("unknown health status %d", int(s))
}

func (s *HealthStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Green":
		*s = Green
	case "Yellow":
		*s = Yellow
	case "Red":
		*s = Red
	default:
		return fmt.Errorf("unknown health status %q", text)
	}
	return nil
}

// Worse returns the more severe of the two statuses.
func Worse(a, b HealthStatus) HealthStatus {
	if a > b {
		return a
	}
	return b
}

type PartitionDetail struct {
	Topic     string `json:"topic"`
	Partition int    `json:"partition"`
	Replicas  []int  `json:"replicas"`
	ISR       []int  `json:"isr"`
}

// HealthReport is the outcome of evaluating one ClusterSnapshot.
// OutOfSyncPartitions is nil only when no evaluation ran.
type HealthReport struct {
	Status              HealthStatus      `json:"status"`
	Brokers             int               `json:"brokers"`
	Topics              int               `json:"topics"`
	OutOfSyncPartitions []PartitionDetail `json:"out_of_sync_partitions"`
}

func (r *HealthReport) String() string {
	return fmt.Sprintf(
		"HealthReport{Status: %s, Brokers: %d, Topics: %d, OutOfSync: %d}",
		r.Status, r.Brokers, r.Topics, len(r.OutOfSyncPartitions),
	)
}
