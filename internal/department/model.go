package department

import "time"

// Department is a church department. Its ID has the form JCC-DEPT-NNN and
// only changes when departments are renumbered.
type Department struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// CreateStatus tells a caller what Create did with a name.
type CreateStatus int

const (
	// Created means a new row was inserted.
	Created CreateStatus = iota
	// RejectedInvalid means the name was empty after trimming.
	RejectedInvalid
	// RejectedDuplicate means a department with the same name, ignoring case, exists.
	RejectedDuplicate
)

func (s CreateStatus) String() string {
	switch s {
	case Created:
		return "created"
	case RejectedInvalid:
		return "rejected_invalid"
	case RejectedDuplicate:
		return "rejected_duplicate"
	default:
		return "unknown"
	}
}

// CreateResult is the outcome of Manager.Create. Department is set only when
// Status is Created.
type CreateResult struct {
	Status     CreateStatus
	Department *Department
}
