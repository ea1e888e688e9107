package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rentfold/leaseflow/internal/domain"
)

const tracerName = "github.com/rentfold/leaseflow/internal/adapter/otel"

// TracingRepository wraps a domain.Repository with OpenTelemetry tracing.
// Each method creates a span with semantic attributes and records errors.
type TracingRepository struct {
	next   domain.Repository
	tracer trace.Tracer
}

// Compile-time check: TracingRepository implements domain.Repository.
var _ domain.Repository = (*TracingRepository)(nil)

// NewTracingRepository creates a tracing decorator around the given repository.
func NewTracingRepository(next domain.Repository) *TracingRepository {
	return &TracingRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingRepository) end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (r *TracingRepository) CreateProperty(ctx context.Context, p domain.Property) (domain.Property, error) {
	ctx, span := r.tracer.Start(ctx, "Repository.CreateProperty",
		trace.WithAttributes(attribute.String("landlord.id", p.LandlordID)),
	)

	created, err := r.next.CreateProperty(ctx, p)
	r.end(span, err)
	return created, err
}

func (r *TracingRepository) GetProperty(ctx context.Context, id int64) (domain.Property, error) {
	ctx, span := r.tracer.Start(ctx, "Repository.GetProperty",
		trace.WithAttributes(attribute.Int64("property.id", id)),
	)

	property, err := r.next.GetProperty(ctx, id)
	r.end(span, err)
	return property, err
}

func (r *TracingRepository) CreateRoom(ctx context.Context, room domain.Room) (domain.Room, error) {
	ctx, span := r.tracer.Start(ctx, "Repository.CreateRoom",
		trace.WithAttributes(attribute.Int64("property.id", room.PropertyID)),
	)

	created, err := r.next.CreateRoom(ctx, room)
	r.end(span, err)
	return created, err
}

func (r *TracingRepository) GetRoom(ctx context.Context, id int64) (domain.Room, error) {
	ctx, span := r.tracer.Start(ctx, "Repository.GetRoom",
		trace.WithAttributes(attribute.Int64("room.id", id)),
	)

	room, err := r.next.GetRoom(ctx, id)
	r.end(span, err)
	return room, err
}

func (r *TracingRepository) CreateTenancy(ctx context.Context, t domain.Tenancy) (domain.Tenancy, error) {
	ctx, span := r.tracer.Start(ctx, "Repository.CreateTenancy",
		trace.WithAttributes(
			attribute.Int64("property.id", t.PropertyID),
			attribute.String("tenancy.status", string(t.Status)),
		),
	)

	created, err := r.next.CreateTenancy(ctx, t)
	r.end(span, err)
	return created, err
}

func (r *TracingRepository) GetTenancy(ctx context.Context, id int64) (domain.Tenancy, error) {
	ctx, span := r.tracer.Start(ctx, "Repository.GetTenancy",
		trace.WithAttributes(attribute.Int64("tenancy.id", id)),
	)

	tenancy, err := r.next.GetTenancy(ctx, id)
	r.end(span, err)
	return tenancy, err
}

func (r *TracingRepository) ListTenancies(ctx context.Context, filter domain.ListFilter) ([]domain.Tenancy, error) {
	ctx, span := r.tracer.Start(ctx, "Repository.ListTenancies",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)

	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}
	if filter.PropertyID != nil {
		span.SetAttributes(attribute.Int64("filter.property_id", *filter.PropertyID))
	}

	tenancies, err := r.next.ListTenancies(ctx, filter)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(tenancies)))
	}
	r.end(span, err)
	return tenancies, err
}

func (r *TracingRepository) ApplyStatusChange(ctx context.Context, change domain.StatusChange) error {
	ctx, span := r.tracer.Start(ctx, "Repository.ApplyStatusChange",
		trace.WithAttributes(
			attribute.Int64("tenancy.id", change.Tenancy.ID),
			attribute.String("tenancy.status.from", string(change.Previous)),
			attribute.String("tenancy.status.to", string(change.Next)),
			attribute.Bool("forced", change.Forced),
		),
	)

	err := r.next.ApplyStatusChange(ctx, change)
	r.end(span, err)
	return err
}
