package model

import "fmt"

type Broker struct {
	ID   int    `json:"id"`
	Host string `json:"host"`
	Port int    `json:"port"`
	Rack string `json:"rack,omitempty"`
}

func (b *Broker) String() string {
	return fmt.Sprintf("Broker{ID: %d, Addr: %s:%d}", b.ID, b.Host, b.Port)
}
