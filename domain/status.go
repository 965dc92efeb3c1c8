package domain

// Status is the lifecycle state of a queue entry.
type Status string

const (
	StatusWaiting   Status = "WAITING"
	StatusCalled    Status = "CALLED"
	StatusInService Status = "IN_SERVICE"
	StatusCompleted Status = "COMPLETED"
	StatusSkipped   Status = "SKIPPED"
	StatusCancelled Status = "CANCELLED"
	StatusNoShow    Status = "NO_SHOW"
)

// allowedTransitions is the full state machine. SKIPPED -> WAITING is the one
// non-linear edge: a called person deferred by staff returns to the queue.
var allowedTransitions = map[Status][]Status{
	StatusWaiting:   {StatusCalled, StatusCancelled},
	StatusCalled:    {StatusInService, StatusCompleted, StatusSkipped, StatusNoShow},
	StatusInService: {StatusCompleted},
	StatusSkipped:   {StatusWaiting},
}

// CanTransition reports whether moving from s to next is a legal status change.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether an entry in this status is read-only and excluded
// from active ranking.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusCalled, StatusInService, StatusCompleted,
		StatusSkipped, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}
