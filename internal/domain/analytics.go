package domain

import "time"

// StatusCount is the number of requests in one status.
type StatusCount struct {
	Status string
	Count  int
}

// TimelinePoint is the number of requests created on one UTC day.
type TimelinePoint struct {
	Date  time.Time
	Count int
}

// TechnicianLoad summarises a technician's open and closed work.
type TechnicianLoad struct {
	TechnicianID   int64
	TechnicianName string
	ActiveRequests int
	ClosedRequests int
}

// TechnicianRating is one leaderboard row.
type TechnicianRating struct {
	TechnicianID      int64
	TechnicianName    string
	ClosedCount       int
	OverdueCount      int
	HighPriorityCount int
	Score             int
}
