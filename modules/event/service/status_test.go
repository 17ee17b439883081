package service

import (
	"testing"

	"shiftboard-api/modules/event/entity"

	"github.com/stretchr/testify/assert"
)

func TestStatusDeriver_Derive(t *testing.T) {
	d := NewStatusDeriver(entity.DefaultStatusTable())

	tests := []struct {
		name              string
		capacity          int
		assignedCount     int
		manuallyConfirmed bool
		want              entity.EventStatus
	}{
		{"no helpers yet", 3, 0, false, entity.EventStatusOpen},
		{"partially filled", 3, 2, false, entity.EventStatusOpen},
		{"full", 3, 3, false, entity.EventStatusAssigned},
		{"overfull", 3, 4, false, entity.EventStatusAssigned},
		{"manually confirmed wins", 3, 0, true, entity.EventStatusConfirmed},
		{"manually confirmed full", 3, 3, true, entity.EventStatusConfirmed},
		{"zero capacity is immediately assigned", 0, 0, false, entity.EventStatusAssigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Derive(tt.capacity, tt.assignedCount, tt.manuallyConfirmed)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Unlimited-capacity events always compare assignedCount >= -1, so they
// report assigned even with zero helpers. Clients depend on this; the
// test pins the behavior so nobody "fixes" it casually.
func TestStatusDeriver_UnlimitedCapacityReportsAssigned(t *testing.T) {
	d := NewStatusDeriver(entity.DefaultStatusTable())

	assert.Equal(t, entity.EventStatusAssigned, d.Derive(entity.CapacityUnlimited, 0, false))
	assert.Equal(t, entity.EventStatusAssigned, d.Derive(entity.CapacityUnlimited, 5, false))
	assert.Equal(t, entity.EventStatusConfirmed, d.Derive(entity.CapacityUnlimited, 0, true))
}

func TestStatusDeriver_PartiallyFilledIsOpen(t *testing.T) {
	d := NewStatusDeriver(entity.DefaultStatusTable())

	assert.Equal(t, entity.EventStatusOpen, d.Derive(5, 4, false))
	assert.Equal(t, entity.EventStatusOpen, d.Derive(5, 1, false))
}

func TestStatusDeriver_CustomTable(t *testing.T) {
	table := entity.StatusTable{
		Open:      entity.EventStatus("free"),
		Assigned:  entity.EventStatus("taken"),
		Confirmed: entity.EventStatus("locked"),
	}
	d := NewStatusDeriver(table)

	assert.Equal(t, entity.EventStatus("free"), d.Derive(2, 1, false))
	assert.Equal(t, entity.EventStatus("taken"), d.Derive(2, 2, false))
	assert.Equal(t, entity.EventStatus("locked"), d.Derive(2, 2, true))
}
