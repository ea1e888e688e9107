package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rentfold/leaseflow/internal/domain"
)

// TenancyService orchestrates tenancy lifecycle operations.
type TenancyService struct {
	repo      domain.Repository
	publisher domain.EventPublisher
	validator domain.TransitionValidator
}

// NewTenancyService creates a service with the given adapters.
func NewTenancyService(repo domain.Repository, publisher domain.EventPublisher, validator domain.TransitionValidator) *TenancyService {
	return &TenancyService{
		repo:      repo,
		publisher: publisher,
		validator: validator,
	}
}

// Create persists a new tenancy in the "pending_agreement" state after
// checking that the acting user is the landlord of the target property and
// that an assigned room belongs to it.
func (s *TenancyService) Create(ctx context.Context, propertyID int64, roomID *int64, tenantName string, startDate time.Time, actorID string) (domain.Tenancy, error) {
	property, err := s.repo.GetProperty(ctx, propertyID)
	if err != nil {
		return domain.Tenancy{}, err
	}
	if property.LandlordID != actorID {
		return domain.Tenancy{}, &domain.UnauthorizedError{ActorID: actorID}
	}

	if roomID != nil {
		room, err := s.repo.GetRoom(ctx, *roomID)
		if err != nil {
			return domain.Tenancy{}, err
		}
		// A room of another property is indistinguishable from a missing
		// one to this landlord.
		if room.PropertyID != propertyID {
			return domain.Tenancy{}, domain.ErrRoomNotFound
		}
	}

	created, err := s.repo.CreateTenancy(ctx, domain.NewTenancy(propertyID, roomID, tenantName, startDate))
	if err != nil {
		return domain.Tenancy{}, fmt.Errorf("creating tenancy: %w", err)
	}

	change := domain.StatusChange{
		Tenancy: created,
		Next:    domain.StatusPendingAgreement,
		ActorID: actorID,
		At:      created.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, change); err != nil {
		return domain.Tenancy{}, fmt.Errorf("publishing creation: %w", err)
	}

	return created, nil
}

// GetByID returns a tenancy by its unique identifier.
func (s *TenancyService) GetByID(ctx context.Context, id int64) (domain.Tenancy, error) {
	return s.repo.GetTenancy(ctx, id)
}

// List returns tenancies matching the given filter.
func (s *TenancyService) List(ctx context.Context, filter domain.ListFilter) ([]domain.Tenancy, error) {
	return s.repo.ListTenancies(ctx, filter)
}

// UpdateStatus moves a tenancy to the given status on behalf of actorID.
//
// The landlord check runs before transition validation so that an
// unauthorized actor cannot probe which transitions are legal. force
// bypasses only the legality check, never authorization. The tenancy write
// and the derived room write happen in one transaction, conditional on the
// status read here, so two concurrent calls cannot both apply against the
// same starting state.
func (s *TenancyService) UpdateStatus(ctx context.Context, id int64, next domain.Status, actorID string, force bool) (domain.Tenancy, error) {
	tenancy, err := s.repo.GetTenancy(ctx, id)
	if err != nil {
		return domain.Tenancy{}, err
	}

	if tenancy.LandlordID != actorID {
		return domain.Tenancy{}, &domain.UnauthorizedError{ActorID: actorID, TenancyID: id}
	}

	if !force {
		if err := s.validator.Apply(ctx, tenancy.Status, next); err != nil {
			return domain.Tenancy{}, err
		}
	}

	now := time.Now().UTC()
	updated := tenancy
	updated.Status = next
	updated.UpdatedAt = now
	if domain.EndsOccupancy(next) {
		updated.EndDate = &now
	}

	change := domain.StatusChange{
		Tenancy:  updated,
		Previous: tenancy.Status,
		Next:     next,
		ActorID:  actorID,
		Forced:   force,
		At:       now,
	}
	if tenancy.RoomID != nil {
		if roomStatus, ok := domain.DeriveRoomStatus(next); ok {
			change.RoomStatus = &roomStatus
		}
	}

	if err := s.repo.ApplyStatusChange(ctx, change); err != nil {
		return domain.Tenancy{}, err
	}

	if force {
		slog.WarnContext(ctx, "forced status transition",
			"tenancy_id", id,
			"from", tenancy.Status,
			"to", next,
			"actor_id", actorID,
		)
	}

	fresh, err := s.repo.GetTenancy(ctx, id)
	if err != nil {
		return domain.Tenancy{}, fmt.Errorf("reloading tenancy: %w", err)
	}

	change.Tenancy = fresh
	if err := s.publisher.Publish(ctx, change); err != nil {
		return domain.Tenancy{}, fmt.Errorf("publishing status change: %w", err)
	}

	return fresh, nil
}
