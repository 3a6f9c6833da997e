package model

// ClusterSnapshot is a point-in-time view of cluster metadata. It is built
// once per health check and never mutated afterwards.
type ClusterSnapshot struct {
	Brokers []Broker
	Topics  []Topic
}

func (s *ClusterSnapshot) NumberOfPartitions() int {
	n := 0
	for _, t := range s.Topics {
		n += len(t.Partitions)
	}
	return n
}
