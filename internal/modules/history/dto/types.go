package dto

import "time"

type RecordInput struct {
	DurationMinutes float64
}

type Entry struct {
	Index           int
	DurationMinutes float64
	EndedAt         time.Time
	Kind            string
	Label           string
}

type ListOutput struct {
	Entries      []Entry
	TotalMinutes float64
	Tier         int
	Motivation   string
}

type ExportOutput struct {
	Format  string
	Payload []byte
}
