package service

import (
	"shiftboard-api/modules/event/entity"
)

// StatusDeriver maps (capacity, assigned count, manual-confirm flag) to
// an event status. It is a pure function over the injected status table.
type StatusDeriver struct {
	table entity.StatusTable
}

func NewStatusDeriver(table entity.StatusTable) *StatusDeriver {
	return &StatusDeriver{table: table}
}

// Derive recomputes the cached status after every assignment-count
// change. Confirmed is sticky: it only holds while manuallyConfirmed is
// set, and leaving it requires the assignment set to change.
//
// For unlimited capacity (-1) the count comparison always holds, so
// unlimited events are reported assigned, never open. The legacy
// scheduler behaves this way and clients depend on it; do not change
// this without product sign-off.
func (d *StatusDeriver) Derive(capacity, assignedCount int, manuallyConfirmed bool) entity.EventStatus {
	if manuallyConfirmed {
		return d.table.Confirmed
	}
	if assignedCount >= capacity {
		return d.table.Assigned
	}
	return d.table.Open
}
