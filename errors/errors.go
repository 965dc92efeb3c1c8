package errors

import "fmt"

var (
	ErrRoomNotFound         = fmt.Errorf("room not found")
	ErrEntryNotFound        = fmt.Errorf("entry not found")
	ErrServicePointNotFound = fmt.Errorf("service point not found")
	ErrInvalidTransition    = fmt.Errorf("invalid status transition")
	ErrEmptyQueue           = fmt.Errorf("no waiting entries")
	ErrWorkerPanic          = fmt.Errorf("worker panic")
)
