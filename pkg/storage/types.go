package storage

import "time"

// Snapshot summarizes one stored series.
type Snapshot struct {
	Country   string // backend spelling
	Indicator string
	Points    int
	FirstYear int
	LastYear  int
	SavedAt   time.Time
}
