package model

import "fmt"

// Partition is one replicated unit of a topic as reported by cluster
// metadata. ISR is expected to be a subset of Replicas but nothing relies on it.
type Partition struct {
	Topic    string `json:"topic"`
	ID       int    `json:"id"`
	Leader   int    `json:"leader"`
	Replicas []int  `json:"replicas"`
	ISR      []int  `json:"isr"`
}

func (p *Partition) String() string {
	return fmt.Sprintf("Partition{Topic: %s, ID: %d, Replicas: %v, ISR: %v}", p.Topic, p.ID, p.Replicas, p.ISR)
}

// UnderReplicated reports whether fewer replicas are in sync than assigned.
func (p *Partition) UnderReplicated() bool {
	return len(p.Replicas) > len(p.ISR)
}

// Offline reports whether no replica is in sync.
func (p *Partition) Offline() bool {
	return len(p.ISR) == 0
}
