package model

import "time"

type ReportRecord struct {
	ID        uint64       `json:"id"`
	CheckedAt time.Time    `json:"checked_at"`
	Report    HealthReport `json:"report"`
}
