package domain

// Category groups requests by subject area.
type Category struct {
	ID   int64
	Name string
}

// Status is a named request lifecycle state.
type Status struct {
	ID   int64
	Name string
}

// Well-known seeded status names.
const (
	StatusNew        = "New"
	StatusInProgress = "In Progress"
	StatusClosed     = "Closed"
	StatusCancelled  = "Cancelled"
)
