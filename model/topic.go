package model

import "fmt"

type Topic struct {
	Name       string      `json:"name"`
	Partitions []Partition `json:"partitions"`
}

func (t *Topic) String() string {
	return fmt.Sprintf("Topic{Name: %s, NumberOfPartitions: %d}", t.Name, len(t.Partitions))
}
