package domain

import "time"

// LeaveInterval is an approved leave covering StartDate..EndDate inclusive
type LeaveInterval struct {
	EmployeeID  int64     `db:"employee_id"`
	StartDate   time.Time `db:"start_date"`
	EndDate     time.Time `db:"end_date"`
	LeaveCodeID int64     `db:"leave_code_id"`
}

// LeaveCatalog maps leave code ids to the short code written in the grid
type LeaveCatalog map[int64]string

type leaveSpan struct {
	from, to string
	codeID   int64
}

// LeaveIndex answers "which leave code applies on this date" for one employee
type LeaveIndex struct {
	spans   []leaveSpan
	catalog LeaveCatalog
}

// NewLeaveIndex keeps interval order; the first covering interval wins.
// Dates are compared as calendar dates, whatever location they carry.
func NewLeaveIndex(intervals []LeaveInterval, catalog LeaveCatalog) *LeaveIndex {
	idx := &LeaveIndex{catalog: catalog, spans: make([]leaveSpan, 0, len(intervals))}
	for _, iv := range intervals {
		idx.spans = append(idx.spans, leaveSpan{
			from:   iv.StartDate.Format(isoDateLayout),
			to:     iv.EndDate.Format(isoDateLayout),
			codeID: iv.LeaveCodeID,
		})
	}
	return idx
}

// CodeFor returns the leave code for an ISO date, or "" when no approved
// interval covers it or its code is not in the catalog.
func (x *LeaveIndex) CodeFor(isoDate string) string {
	if x == nil {
		return ""
	}
	for _, s := range x.spans {
		if s.from <= isoDate && isoDate <= s.to {
			return x.catalog[s.codeID]
		}
	}
	return ""
}
