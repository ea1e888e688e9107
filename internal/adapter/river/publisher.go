package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/rentfold/leaseflow/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// StatusChangeJobArgs carries the data needed to process an applied status
// change asynchronously. River serializes this as JSON into its job queue
// table. It snapshots the change at publish time so the worker never needs
// to query the database.
type StatusChangeJobArgs struct {
	TenancyID  int64  `json:"tenancy_id"`
	PropertyID int64  `json:"property_id"`
	RoomID     *int64 `json:"room_id,omitempty"`
	Previous   string `json:"previous"`
	Next       string `json:"next"`
	ActorID    string `json:"actor_id"`
	Forced     bool   `json:"forced"`
	RoomStatus string `json:"room_status,omitempty"`
	At         string `json:"at"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (StatusChangeJobArgs) Kind() string { return "tenancy.status_changed" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues an applied status change as an async job in River.
func (p *Publisher) Publish(ctx context.Context, change domain.StatusChange) error {
	args := StatusChangeJobArgs{
		TenancyID:  change.Tenancy.ID,
		PropertyID: change.Tenancy.PropertyID,
		RoomID:     change.Tenancy.RoomID,
		Previous:   string(change.Previous),
		Next:       string(change.Next),
		ActorID:    change.ActorID,
		Forced:     change.Forced,
		At:         change.At.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if change.RoomStatus != nil {
		args.RoomStatus = string(*change.RoomStatus)
	}

	if _, err := p.client.Insert(ctx, args, nil); err != nil {
		return fmt.Errorf("enqueuing status change job: %w", err)
	}
	return nil
}
