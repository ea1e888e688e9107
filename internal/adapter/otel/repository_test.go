package otel_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	adapter "github.com/rentfold/leaseflow/internal/adapter/otel"
	"github.com/rentfold/leaseflow/internal/domain"
)

// --- Test tracer setup ---

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter
}

// --- Mock repository ---

type mockRepo struct {
	properties map[int64]domain.Property
	rooms      map[int64]domain.Room
	tenancies  map[int64]domain.Tenancy
	nextID     int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		properties: make(map[int64]domain.Property),
		rooms:      make(map[int64]domain.Room),
		tenancies:  make(map[int64]domain.Tenancy),
	}
}

func (m *mockRepo) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *mockRepo) CreateProperty(_ context.Context, p domain.Property) (domain.Property, error) {
	p.ID = m.id()
	m.properties[p.ID] = p
	return p, nil
}

func (m *mockRepo) GetProperty(_ context.Context, id int64) (domain.Property, error) {
	p, ok := m.properties[id]
	if !ok {
		return domain.Property{}, domain.ErrPropertyNotFound
	}
	return p, nil
}

func (m *mockRepo) CreateRoom(_ context.Context, r domain.Room) (domain.Room, error) {
	r.ID = m.id()
	m.rooms[r.ID] = r
	return r, nil
}

func (m *mockRepo) GetRoom(_ context.Context, id int64) (domain.Room, error) {
	r, ok := m.rooms[id]
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	return r, nil
}

func (m *mockRepo) CreateTenancy(_ context.Context, t domain.Tenancy) (domain.Tenancy, error) {
	t.ID = m.id()
	m.tenancies[t.ID] = t
	return t, nil
}

func (m *mockRepo) GetTenancy(_ context.Context, id int64) (domain.Tenancy, error) {
	t, ok := m.tenancies[id]
	if !ok {
		return domain.Tenancy{}, domain.ErrTenancyNotFound
	}
	return t, nil
}

func (m *mockRepo) ListTenancies(_ context.Context, _ domain.ListFilter) ([]domain.Tenancy, error) {
	out := make([]domain.Tenancy, 0, len(m.tenancies))
	for _, t := range m.tenancies {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockRepo) ApplyStatusChange(_ context.Context, change domain.StatusChange) error {
	current, ok := m.tenancies[change.Tenancy.ID]
	if !ok {
		return domain.ErrTenancyNotFound
	}
	if current.Status != change.Previous {
		return domain.ErrStatusConflict
	}
	m.tenancies[change.Tenancy.ID] = change.Tenancy
	return nil
}

// --- Tests ---

func TestTracingRepository_GetTenancy_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingRepository(inner)

	tenancy := domain.NewTenancy(2, nil, "Sam Katz", time.Now().UTC())
	tenancy.ID = 1
	inner.tenancies[1] = tenancy

	got, err := repo.GetTenancy(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 1 {
		t.Errorf("ID = %d, want 1", got.ID)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "Repository.GetTenancy" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "Repository.GetTenancy")
	}

	assertAttribute(t, spans[0], "tenancy.id", "1")
}

func TestTracingRepository_GetTenancy_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingRepository(newMockRepo())

	_, err := repo.GetTenancy(context.Background(), 404)
	if !errors.Is(err, domain.ErrTenancyNotFound) {
		t.Fatalf("expected ErrTenancyNotFound, got %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}

	if len(spans[0].Events) == 0 {
		t.Error("expected error event on span")
	}
}

func TestTracingRepository_ListTenancies_RecordsResultCount(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingRepository(inner)

	inner.tenancies[1] = domain.Tenancy{ID: 1, Status: domain.StatusActive}
	inner.tenancies[2] = domain.Tenancy{ID: 2, Status: domain.StatusClosed}

	tenancies, err := repo.ListTenancies(context.Background(), domain.ListFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tenancies) != 2 {
		t.Errorf("got %d tenancies, want 2", len(tenancies))
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	assertAttribute(t, spans[0], "result.count", "2")
}

func TestTracingRepository_ApplyStatusChange_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingRepository(inner)

	inner.tenancies[1] = domain.Tenancy{ID: 1, Status: domain.StatusActive}

	change := domain.StatusChange{
		Tenancy:  domain.Tenancy{ID: 1, Status: domain.StatusNoticePeriod},
		Previous: domain.StatusActive,
		Next:     domain.StatusNoticePeriod,
		Forced:   true,
		At:       time.Now().UTC(),
	}
	if err := repo.ApplyStatusChange(context.Background(), change); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "Repository.ApplyStatusChange" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "Repository.ApplyStatusChange")
	}

	assertAttribute(t, spans[0], "tenancy.status.from", "active")
	assertAttribute(t, spans[0], "tenancy.status.to", "notice_period")
	assertAttribute(t, spans[0], "forced", "true")
}

func assertAttribute(t *testing.T, span tracetest.SpanStub, key, want string) {
	t.Helper()
	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			got := attr.Value.Emit()
			if got != want {
				t.Errorf("attribute %q = %q, want %q", key, got, want)
			}
			return
		}
	}
	t.Errorf("attribute %q not found on span %q", key, span.Name)
}
