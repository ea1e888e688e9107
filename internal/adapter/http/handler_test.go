package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/rentfold/leaseflow/internal/adapter/fsm"
	adapter "github.com/rentfold/leaseflow/internal/adapter/http"
	"github.com/rentfold/leaseflow/internal/adapter/sqlite"
	"github.com/rentfold/leaseflow/internal/app"
	"github.com/rentfold/leaseflow/internal/domain"
)

// noopPublisher is a no-op EventPublisher for tests.
type noopPublisher struct{}

func (p *noopPublisher) Publish(_ context.Context, _ domain.StatusChange) error {
	return nil
}

type testEnv struct {
	srv  *httptest.Server
	repo *sqlite.Repository
}

// newTestEnv creates a full-stack httptest.Server over in-memory SQLite.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating test repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	svc := app.NewTenancyService(repo, &noopPublisher{}, fsm.New())

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("leaseflow", "0.1.0"))
	adapter.Register(api, svc)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, repo: repo}
}

// doRequest performs an HTTP request with the actor header set.
func doRequest(t *testing.T, method, url, actor, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, reader)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != "" {
		req.Header.Set("X-Actor-ID", actor)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}

	return resp
}

// seed creates a property owned by landlord with one room, directly through
// the repository (property management is not part of this API).
func (e *testEnv) seed(t *testing.T, landlord string) (domain.Property, domain.Room) {
	t.Helper()
	ctx := context.Background()

	property, err := e.repo.CreateProperty(ctx, domain.Property{LandlordID: landlord, Name: "Elm House"})
	if err != nil {
		t.Fatalf("seeding property: %v", err)
	}
	room, err := e.repo.CreateRoom(ctx, domain.Room{PropertyID: property.ID, Label: "1A"})
	if err != nil {
		t.Fatalf("seeding room: %v", err)
	}
	return property, room
}

// mustCreateTenancy creates a tenancy via the API and returns its response.
func (e *testEnv) mustCreateTenancy(t *testing.T, actor string, propertyID int64, roomID *int64) adapter.TenancyResponse {
	t.Helper()

	body := fmt.Sprintf(`{"property_id":%d,"tenant_name":"Sam Katz","start_date":"2025-02-01T00:00:00Z"`, propertyID)
	if roomID != nil {
		body += fmt.Sprintf(`,"room_id":%d`, *roomID)
	}
	body += `}`

	resp := doRequest(t, http.MethodPost, e.srv.URL+"/api/v1/tenancies", actor, body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create tenancy: status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var tenancy adapter.TenancyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tenancy); err != nil {
		t.Fatalf("decode tenancy: %v", err)
	}
	return tenancy
}

func (e *testEnv) updateStatus(t *testing.T, actor string, id int64, status string, force bool) *http.Response {
	t.Helper()
	body := fmt.Sprintf(`{"status":%q,"force":%v}`, status, force)
	return doRequest(t, http.MethodPost, fmt.Sprintf("%s/api/v1/tenancies/%d/status", e.srv.URL, id), actor, body)
}

// --- Create ---

func TestCreateTenancy(t *testing.T) {
	env := newTestEnv(t)
	property, room := env.seed(t, "landlord-a")

	tenancy := env.mustCreateTenancy(t, "landlord-a", property.ID, &room.ID)

	if tenancy.Status != "pending_agreement" {
		t.Errorf("status = %q, want %q", tenancy.Status, "pending_agreement")
	}
	if tenancy.RoomID == nil || *tenancy.RoomID != room.ID {
		t.Errorf("room_id = %v, want %d", tenancy.RoomID, room.ID)
	}
	if tenancy.EndDate != nil {
		t.Errorf("end_date = %v, want absent", *tenancy.EndDate)
	}
}

func TestCreateTenancy_WrongActor(t *testing.T) {
	env := newTestEnv(t)
	property, _ := env.seed(t, "landlord-a")

	body := fmt.Sprintf(`{"property_id":%d,"tenant_name":"Sam Katz","start_date":"2025-02-01T00:00:00Z"}`, property.ID)
	resp := doRequest(t, http.MethodPost, env.srv.URL+"/api/v1/tenancies", "someone-else", body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}
}

// --- Get ---

func TestGetTenancy(t *testing.T) {
	env := newTestEnv(t)
	property, _ := env.seed(t, "landlord-a")
	created := env.mustCreateTenancy(t, "landlord-a", property.ID, nil)

	resp := doRequest(t, http.MethodGet, fmt.Sprintf("%s/api/v1/tenancies/%d", env.srv.URL, created.ID), "", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var tenancy adapter.TenancyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tenancy); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tenancy.ID != created.ID {
		t.Errorf("id = %d, want %d", tenancy.ID, created.ID)
	}
}

func TestGetTenancy_NotFound(t *testing.T) {
	env := newTestEnv(t)

	resp := doRequest(t, http.MethodGet, env.srv.URL+"/api/v1/tenancies/404", "", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

// --- List ---

func TestListTenancies(t *testing.T) {
	env := newTestEnv(t)
	property, _ := env.seed(t, "landlord-a")
	env.mustCreateTenancy(t, "landlord-a", property.ID, nil)
	env.mustCreateTenancy(t, "landlord-a", property.ID, nil)

	resp := doRequest(t, http.MethodGet, env.srv.URL+"/api/v1/tenancies?status=pending_agreement", "", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var tenancies []adapter.TenancyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tenancies); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tenancies) != 2 {
		t.Errorf("got %d tenancies, want 2", len(tenancies))
	}
}

// --- Update status ---

func TestUpdateStatus_LegalTransition(t *testing.T) {
	env := newTestEnv(t)
	property, room := env.seed(t, "landlord-a")
	created := env.mustCreateTenancy(t, "landlord-a", property.ID, &room.ID)

	resp := env.updateStatus(t, "landlord-a", created.ID, "bond_pending", false)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var tenancy adapter.TenancyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tenancy); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tenancy.Status != "bond_pending" {
		t.Errorf("status = %q, want %q", tenancy.Status, "bond_pending")
	}
}

func TestUpdateStatus_WrongActorGets403(t *testing.T) {
	env := newTestEnv(t)
	property, _ := env.seed(t, "landlord-a")
	created := env.mustCreateTenancy(t, "landlord-a", property.ID, nil)

	resp := env.updateStatus(t, "someone-else", created.ID, "closed", false)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}
}

func TestUpdateStatus_IllegalTransitionGets422(t *testing.T) {
	env := newTestEnv(t)
	property, _ := env.seed(t, "landlord-a")
	created := env.mustCreateTenancy(t, "landlord-a", property.ID, nil)

	resp := env.updateStatus(t, "landlord-a", created.ID, "active", false)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestUpdateStatus_ForceFlow(t *testing.T) {
	env := newTestEnv(t)
	property, room := env.seed(t, "landlord-a")
	created := env.mustCreateTenancy(t, "landlord-a", property.ID, &room.ID)

	// First attempt without force is rejected.
	rejected := env.updateStatus(t, "landlord-a", created.ID, "active", false)
	rejected.Body.Close()
	if rejected.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rejected.StatusCode, http.StatusUnprocessableEntity)
	}

	// Re-submitting with force succeeds and the room side effect applies.
	resp := env.updateStatus(t, "landlord-a", created.ID, "active", true)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	gotRoom, err := env.repo.GetRoom(context.Background(), room.ID)
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if gotRoom.Status != domain.RoomOccupied {
		t.Errorf("room status = %q, want %q", gotRoom.Status, domain.RoomOccupied)
	}
}

func TestUpdateStatus_ClosedCarriesEndDate(t *testing.T) {
	env := newTestEnv(t)
	property, _ := env.seed(t, "landlord-a")
	created := env.mustCreateTenancy(t, "landlord-a", property.ID, nil)

	resp := env.updateStatus(t, "landlord-a", created.ID, "closed", false)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var tenancy adapter.TenancyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tenancy); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tenancy.EndDate == nil {
		t.Fatal("end_date should be set after closing")
	}
	if _, err := time.Parse(time.RFC3339, *tenancy.EndDate); err != nil {
		t.Errorf("end_date %q is not ISO 8601: %v", *tenancy.EndDate, err)
	}
}

func TestUpdateStatus_UnknownStatusRejectedByValidation(t *testing.T) {
	env := newTestEnv(t)
	property, _ := env.seed(t, "landlord-a")
	created := env.mustCreateTenancy(t, "landlord-a", property.ID, nil)

	resp := env.updateStatus(t, "landlord-a", created.ID, "bogus", false)
	defer resp.Body.Close()

	// Huma's enum validation rejects the body before the service runs.
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}
