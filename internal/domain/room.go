package domain

import "time"

// RoomStatus represents the occupancy state of a room. It is a coarser
// projection than tenancy status; "maintenance" is set by operators outside
// the tenancy lifecycle and is never derived here.
type RoomStatus string

const (
	RoomOccupied    RoomStatus = "occupied"
	RoomVacantReady RoomStatus = "vacant_ready"
	RoomMaintenance RoomStatus = "maintenance"
)

// DeriveRoomStatus translates a tenancy status into the room occupancy
// status it implies. The second return is false when the tenancy status
// carries no implication (still negotiating or preparing), in which case
// whatever an operator set on the room is left alone.
func DeriveRoomStatus(s Status) (RoomStatus, bool) {
	switch s {
	case StatusActive, StatusNoticePeriod:
		return RoomOccupied, true
	case StatusClosed, StatusEvicted, StatusEndedPendingBond:
		return RoomVacantReady, true
	default:
		return "", false
	}
}

// Room is a physical unit within a property that a tenancy may occupy.
// Its status is mutated only as a side effect of tenancy transitions, or
// directly by operators (out of this package's concern).
type Room struct {
	ID         int64
	PropertyID int64
	Label      string
	Status     RoomStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
