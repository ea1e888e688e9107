package domain

import "time"

// Status represents the lifecycle state of a tenancy.
type Status string

const (
	StatusPendingAgreement Status = "pending_agreement"
	StatusBondPending      Status = "bond_pending"
	StatusMoveInReady      Status = "move_in_ready"
	StatusActive           Status = "active"
	StatusNoticePeriod     Status = "notice_period"
	StatusEndedPendingBond Status = "ended_pending_bond"
	StatusClosed           Status = "closed"
	StatusEvicted          Status = "evicted"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusPendingAgreement,
	StatusBondPending,
	StatusMoveInReady,
	StatusActive,
	StatusNoticePeriod,
	StatusEndedPendingBond,
	StatusClosed,
	StatusEvicted,
}

// Transitions maps each status to the set of statuses it may legally move
// to. This is the single source of truth for lifecycle legality; the FSM
// adapter and the HTTP enum are both derived from it. StatusClosed is
// terminal and has no outgoing edges.
var Transitions = map[Status][]Status{
	StatusPendingAgreement: {StatusBondPending, StatusClosed},
	StatusBondPending:      {StatusMoveInReady, StatusPendingAgreement, StatusClosed},
	StatusMoveInReady:      {StatusActive, StatusBondPending, StatusClosed},
	StatusActive:           {StatusNoticePeriod, StatusEvicted, StatusClosed},
	StatusNoticePeriod:     {StatusEndedPendingBond, StatusActive},
	StatusEndedPendingBond: {StatusClosed, StatusActive},
	StatusClosed:           {},
	StatusEvicted:          {StatusClosed, StatusEndedPendingBond},
}

// CanTransition reports whether moving from current to next is legal.
// Unknown current statuses yield false.
func CanTransition(current, next Status) bool {
	for _, s := range Transitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// AllowedNext returns the legal next statuses for current. The returned
// slice is nil for terminal or unknown statuses and must not be mutated.
func AllowedNext(current Status) []Status {
	allowed := Transitions[current]
	if len(allowed) == 0 {
		return nil
	}
	return allowed
}

// EndsOccupancy reports whether entering s sets the tenancy's end date.
// The end date is forward-set on entering closed or evicted and never
// cleared by later transitions.
func EndsOccupancy(s Status) bool {
	return s == StatusClosed || s == StatusEvicted
}

// Tenancy is the core domain entity: one tenant's occupancy agreement for
// a room within a property.
type Tenancy struct {
	ID         int64
	PropertyID int64
	// RoomID is nil while no room has been assigned to the agreement.
	RoomID     *int64
	TenantName string
	Status     Status
	StartDate  time.Time
	// EndDate is set when the tenancy enters closed or evicted, else nil.
	EndDate   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time

	// LandlordID is the owning property's landlord, populated by the
	// repository join on reads. It is never written through the
	// tenancies table.
	LandlordID string
}

// NewTenancy creates a tenancy in the initial "pending_agreement" state.
func NewTenancy(propertyID int64, roomID *int64, tenantName string, startDate time.Time) Tenancy {
	now := time.Now().UTC()
	return Tenancy{
		PropertyID: propertyID,
		RoomID:     roomID,
		TenantName: tenantName,
		Status:     StatusPendingAgreement,
		StartDate:  startDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// StatusChange records one applied transition: the fresh tenancy, where it
// came from, who moved it, and the room side effect (nil when no room
// update is implied). It is the unit handed to persistence and publishing.
type StatusChange struct {
	Tenancy    Tenancy
	Previous   Status
	Next       Status
	ActorID    string
	Forced     bool
	RoomStatus *RoomStatus
	At         time.Time
}
