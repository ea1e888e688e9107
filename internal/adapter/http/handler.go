package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/rentfold/leaseflow/internal/app"
	"github.com/rentfold/leaseflow/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// TenancyResponse is the API representation of a tenancy.
type TenancyResponse struct {
	ID         int64   `json:"id" doc:"Unique identifier"`
	PropertyID int64   `json:"property_id" doc:"Owning property"`
	RoomID     *int64  `json:"room_id,omitempty" doc:"Assigned room, absent while unassigned"`
	TenantName string  `json:"tenant_name" doc:"Tenant display name"`
	Status     string  `json:"status" doc:"Lifecycle state"`
	StartDate  string  `json:"start_date" doc:"Agreement start (ISO 8601)"`
	EndDate    *string `json:"end_date,omitempty" doc:"Set when the tenancy enters closed or evicted"`
	CreatedAt  string  `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt  string  `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toTenancyResponse(t domain.Tenancy) TenancyResponse {
	resp := TenancyResponse{
		ID:         t.ID,
		PropertyID: t.PropertyID,
		RoomID:     t.RoomID,
		TenantName: t.TenantName,
		Status:     string(t.Status),
		StartDate:  t.StartDate.Format(timeFormat),
		CreatedAt:  t.CreatedAt.Format(timeFormat),
		UpdatedAt:  t.UpdatedAt.Format(timeFormat),
	}
	if t.EndDate != nil {
		end := t.EndDate.Format(timeFormat)
		resp.EndDate = &end
	}
	return resp
}

// --- Create Tenancy ---

type CreateTenancyInput struct {
	Actor string `header:"X-Actor-ID" doc:"Acting landlord, injected by the auth layer"`
	Body  struct {
		PropertyID int64  `json:"property_id" minimum:"1" doc:"Owning property"`
		RoomID     *int64 `json:"room_id,omitempty" doc:"Room to assign, may be omitted"`
		TenantName string `json:"tenant_name" minLength:"1" maxLength:"255" doc:"Tenant display name"`
		StartDate  string `json:"start_date" format:"date-time" doc:"Agreement start (ISO 8601)"`
	}
}

type CreateTenancyOutput struct {
	Body TenancyResponse
}

// --- Get Tenancy ---

type GetTenancyInput struct {
	ID int64 `path:"id" doc:"Tenancy ID"`
}

type GetTenancyOutput struct {
	Body TenancyResponse
}

// --- List Tenancies ---

type ListTenanciesInput struct {
	Status     string `query:"status" required:"false" doc:"Filter by lifecycle state"`
	PropertyID int64  `query:"property_id" required:"false" doc:"Filter by owning property"`
	Limit      int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset     int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListTenanciesOutput struct {
	Body []TenancyResponse
}

// --- Update Status ---

type UpdateStatusInput struct {
	ID    int64  `path:"id" doc:"Tenancy ID"`
	Actor string `header:"X-Actor-ID" doc:"Acting landlord, injected by the auth layer"`
	Body  struct {
		Status string `json:"status" doc:"Status to move the tenancy to" enum:"pending_agreement,bond_pending,move_in_ready,active,notice_period,ended_pending_bond,closed,evicted"`
		Force  bool   `json:"force,omitempty" doc:"Bypass transition validation (never authorization)"`
	}
}

type UpdateStatusOutput struct {
	Body TenancyResponse
}

// Register adds all tenancy API routes to the Huma API.
func Register(api huma.API, svc *app.TenancyService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-tenancy",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenancies",
		Summary:     "Create a new tenancy",
		Tags:        []string{"Tenancies"},
	}, func(ctx context.Context, input *CreateTenancyInput) (*CreateTenancyOutput, error) {
		start, err := time.Parse(time.RFC3339, input.Body.StartDate)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity("invalid start_date")
		}

		tenancy, err := svc.Create(ctx, input.Body.PropertyID, input.Body.RoomID, input.Body.TenantName, start, input.Actor)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreateTenancyOutput{Body: toTenancyResponse(tenancy)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-tenancy",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenancies/{id}",
		Summary:     "Get a tenancy by ID",
		Tags:        []string{"Tenancies"},
	}, func(ctx context.Context, input *GetTenancyInput) (*GetTenancyOutput, error) {
		tenancy, err := svc.GetByID(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetTenancyOutput{Body: toTenancyResponse(tenancy)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tenancies",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenancies",
		Summary:     "List tenancies",
		Tags:        []string{"Tenancies"},
	}, func(ctx context.Context, input *ListTenanciesInput) (*ListTenanciesOutput, error) {
		filter := domain.ListFilter{
			Limit:  input.Limit,
			Offset: input.Offset,
		}
		if input.Status != "" {
			s := domain.Status(input.Status)
			filter.Status = &s
		}
		if input.PropertyID != 0 {
			id := input.PropertyID
			filter.PropertyID = &id
		}

		tenancies, err := svc.List(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]TenancyResponse, len(tenancies))
		for i, t := range tenancies {
			resp[i] = toTenancyResponse(t)
		}
		return &ListTenanciesOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-tenancy-status",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenancies/{id}/status",
		Summary:     "Move a tenancy to a new lifecycle state",
		Description: "A 422 response means the transition is not in the allowed set; the caller may confirm and re-submit with force=true.",
		Tags:        []string{"Tenancies"},
	}, func(ctx context.Context, input *UpdateStatusInput) (*UpdateStatusOutput, error) {
		tenancy, err := svc.UpdateStatus(ctx, input.ID, domain.Status(input.Body.Status), input.Actor, input.Body.Force)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &UpdateStatusOutput{Body: toTenancyResponse(tenancy)}, nil
	})
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	switch {
	case errors.Is(err, domain.ErrTenancyNotFound):
		return huma.Error404NotFound("tenancy not found")
	case errors.Is(err, domain.ErrPropertyNotFound):
		return huma.Error404NotFound("property not found")
	case errors.Is(err, domain.ErrRoomNotFound):
		return huma.Error404NotFound("room not found")
	case errors.Is(err, domain.ErrStatusConflict):
		return huma.Error409Conflict("tenancy status changed concurrently, re-read and retry")
	}

	var authErr *domain.UnauthorizedError
	if errors.As(err, &authErr) {
		return huma.Error403Forbidden("not the landlord of this tenancy")
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
