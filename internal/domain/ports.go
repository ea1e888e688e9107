package domain

import "context"

// Repository defines the persistence contract over properties, rooms, and
// tenancies. Tenancy reads join the owning property so the returned entity
// carries LandlordID for authorization.
type Repository interface {
	CreateProperty(ctx context.Context, p Property) (Property, error)
	GetProperty(ctx context.Context, id int64) (Property, error)

	CreateRoom(ctx context.Context, r Room) (Room, error)
	GetRoom(ctx context.Context, id int64) (Room, error)

	CreateTenancy(ctx context.Context, t Tenancy) (Tenancy, error)
	GetTenancy(ctx context.Context, id int64) (Tenancy, error)
	ListTenancies(ctx context.Context, filter ListFilter) ([]Tenancy, error)

	// ApplyStatusChange persists the tenancy status write and the derived
	// room write (when change.RoomStatus is non-nil and the tenancy has a
	// room) as a single transaction. The tenancy write is conditional on
	// the row still holding change.Previous; ErrStatusConflict is returned
	// when a concurrent transition interleaved.
	ApplyStatusChange(ctx context.Context, change StatusChange) error
}

// ListFilter holds optional criteria for listing tenancies.
type ListFilter struct {
	Status     *Status
	PropertyID *int64
	Limit      int
	Offset     int
}

// TransitionValidator checks lifecycle legality of a status change.
// Implementations return *TransitionError for illegal moves.
type TransitionValidator interface {
	Apply(ctx context.Context, current, next Status) error
}

// EventPublisher defines the contract for emitting applied status changes.
type EventPublisher interface {
	Publish(ctx context.Context, change StatusChange) error
}
