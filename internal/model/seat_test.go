package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeatAvailability(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	holder := uint64(7)
	later, earlier := now.Add(time.Minute), now.Add(-time.Minute)

	tests := []struct {
		name      string
		seat      Seat
		available bool
		lockedBy  bool
		display   SeatStatus
	}{
		{"available", Seat{Status: SeatAvailable}, true, false, SeatAvailable},
		{"live lock", Seat{Status: SeatLocked, LockedBy: &holder, LockedUntil: &later}, false, true, SeatLocked},
		{"lapsed lock", Seat{Status: SeatLocked, LockedBy: &holder, LockedUntil: &earlier}, true, false, SeatAvailable},
		{"lock ends now", Seat{Status: SeatLocked, LockedBy: &holder, LockedUntil: &now}, true, false, SeatAvailable},
		{"booked", Seat{Status: SeatBooked}, false, false, SeatBooked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.available, tt.seat.IsAvailable(now))
			assert.Equal(t, tt.lockedBy, tt.seat.IsLockedBy(holder, now))
			assert.False(t, tt.seat.IsLockedBy(holder+1, now))
			assert.Equal(t, tt.display, tt.seat.DisplayStatus(now))
		})
	}
}
