package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mealvilla/staff-portal/internal/api/middleware"
	"github.com/mealvilla/staff-portal/internal/core/domain"
	"github.com/mealvilla/staff-portal/internal/core/ports"
)

type stubLedger struct {
	ports.RequestLedger
	addStaffIn ports.AddStaffRequestInput
	listKind   domain.RequestKind
	listStatus domain.RequestStatus
	get        *domain.StaffRequest
}

func (s *stubLedger) CreateAddStaffRequest(_ context.Context, actor domain.Actor, in ports.AddStaffRequestInput) (*domain.StaffRequest, error) {
	s.addStaffIn = in
	return &domain.StaffRequest{ID: "r1", Kind: domain.KindAddStaff, RequestedByUID: actor.UID, Status: domain.StatusPending}, nil
}

func (s *stubLedger) ListRequests(_ context.Context, _ domain.Actor, kind domain.RequestKind, status domain.RequestStatus) ([]*domain.StaffRequest, error) {
	s.listKind, s.listStatus = kind, status
	return []*domain.StaffRequest{}, nil
}

func (s *stubLedger) GetRequest(context.Context, domain.RequestKind, string) (*domain.StaffRequest, error) {
	if s.get == nil {
		return nil, domain.ErrRequestNotFound
	}
	return s.get, nil
}

type stubWorkflow struct {
	ports.ApprovalWorkflow
	declineIn ports.DeclineInput
	declineID string
}

func (s *stubWorkflow) DeclineDeletion(_ context.Context, _ domain.Actor, id string, in ports.DeclineInput) (*domain.StaffRequest, error) {
	s.declineID, s.declineIn = id, in
	return &domain.StaffRequest{ID: id, Status: domain.StatusDeclined}, nil
}

func (s *stubWorkflow) ApproveAddStaff(context.Context, domain.Actor, string) (*domain.StaffRequest, error) {
	return nil, domain.ErrNotFoundOrProcessed
}

func withActor(c echo.Context, uid string, role domain.Role) {
	c.Set(middleware.KeyUID, uid)
	c.Set(middleware.KeyName, "Tester")
	c.Set(middleware.KeyRole, string(role))
	c.Set(middleware.KeyStaffID, "900001")
}

func TestRequestHandler_CreateAddStaff(t *testing.T) {
	e := newTestEcho()
	ledger := &stubLedger{}
	handler := NewRequestHandler(ledger, &stubWorkflow{})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/requests/add-staff",
		`{"name":"Ada","staff_id":"123456","role":"staff","initial_password":"secret1"}`), rec)
	withActor(c, "sup-1", domain.RoleSupervisor)

	if err := handler.CreateAddStaff(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if ledger.addStaffIn.Role != domain.RoleStaff || ledger.addStaffIn.InitialPassword != "secret1" {
		t.Fatalf("unexpected input: %+v", ledger.addStaffIn)
	}
}

func TestRequestHandler_CreateAddStaff_RejectsPrivilegedRole(t *testing.T) {
	e := newTestEcho()
	handler := NewRequestHandler(&stubLedger{}, &stubWorkflow{})

	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/requests/add-staff",
		`{"name":"Ada","staff_id":"123456","role":"manager"}`), httptest.NewRecorder())
	withActor(c, "sup-1", domain.RoleSupervisor)

	var he *echo.HTTPError
	if err := handler.CreateAddStaff(c); !errors.As(err, &he) || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
}

func TestRequestHandler_RequiresClaims(t *testing.T) {
	e := newTestEcho()
	handler := NewRequestHandler(&stubLedger{}, &stubWorkflow{})

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/requests/deletion", nil), httptest.NewRecorder())
	c.SetParamNames("kind")
	c.SetParamValues("deletion")

	var he *echo.HTTPError
	if err := handler.List(c); !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestRequestHandler_List(t *testing.T) {
	e := newTestEcho()
	ledger := &stubLedger{}
	handler := NewRequestHandler(ledger, &stubWorkflow{})

	tests := []struct {
		name     string
		kind     string
		status   string
		wantCode int
	}{
		{"deletion pending", "deletion", "pending", 0},
		{"add-staff all", "add-staff", "", 0},
		{"unknown kind", "transfer", "", http.StatusNotFound},
		{"unknown status", "deletion", "maybe", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/requests/"+tt.kind+"?status="+tt.status, nil), rec)
			c.SetParamNames("kind")
			c.SetParamValues(tt.kind)
			withActor(c, "mgr-1", domain.RoleManager)

			err := handler.List(c)
			if tt.wantCode == 0 {
				if err != nil {
					t.Fatalf("handler error: %v", err)
				}
				if ledger.listKind != pathKinds[tt.kind] || string(ledger.listStatus) != tt.status {
					t.Fatalf("unexpected filter: %s %s", ledger.listKind, ledger.listStatus)
				}
				return
			}
			var he *echo.HTTPError
			if !errors.As(err, &he) || he.Code != tt.wantCode {
				t.Fatalf("expected %d, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestRequestHandler_Get_OwnRequestsOnly(t *testing.T) {
	e := newTestEcho()
	ledger := &stubLedger{get: &domain.StaffRequest{ID: "r1", Kind: domain.KindDeletion, RequestedByUID: "sup-1"}}
	handler := NewRequestHandler(ledger, &stubWorkflow{})

	for _, tc := range []struct {
		uid  string
		role domain.Role
		want error
	}{
		{"sup-1", domain.RoleSupervisor, nil},
		{"sup-2", domain.RoleSupervisor, domain.ErrForbidden},
		{"mgr-1", domain.RoleManager, nil},
	} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/requests/deletion/r1", nil), httptest.NewRecorder())
		c.SetParamNames("kind", "id")
		c.SetParamValues("deletion", "r1")
		withActor(c, tc.uid, tc.role)

		if err := handler.Get(c); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.uid, tc.want, err)
		}
	}
}

func TestRequestHandler_Decline(t *testing.T) {
	e := newTestEcho()
	workflow := &stubWorkflow{}
	handler := NewRequestHandler(&stubLedger{}, workflow)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/requests/deletion/r9/decline",
		`{"feedback":"not yet","requester_uid":"sup-1"}`), rec)
	c.SetParamNames("id")
	c.SetParamValues("r9")
	withActor(c, "mgr-1", domain.RoleManager)

	if err := handler.DeclineDeletion(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if workflow.declineID != "r9" || workflow.declineIn.Feedback != "not yet" || workflow.declineIn.RequesterUID != "sup-1" {
		t.Fatalf("unexpected decline: %s %+v", workflow.declineID, workflow.declineIn)
	}
}

func TestRequestHandler_Decline_EmptyBody(t *testing.T) {
	e := newTestEcho()
	workflow := &stubWorkflow{}
	handler := NewRequestHandler(&stubLedger{}, workflow)

	req := httptest.NewRequest(http.MethodPost, "/v1/requests/deletion/r9/decline", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("r9")
	withActor(c, "mgr-1", domain.RoleManager)

	if err := handler.DeclineDeletion(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if workflow.declineIn != (ports.DeclineInput{}) {
		t.Fatalf("expected empty decline input, got %+v", workflow.declineIn)
	}
}

func TestRequestHandler_ApprovePropagatesDomainError(t *testing.T) {
	e := newTestEcho()
	handler := NewRequestHandler(&stubLedger{}, &stubWorkflow{})

	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/v1/requests/add-staff/r1/approve", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("r1")
	withActor(c, "mgr-1", domain.RoleManager)

	if err := handler.ApproveAddStaff(c); !errors.Is(err, domain.ErrNotFoundOrProcessed) {
		t.Fatalf("expected ErrNotFoundOrProcessed, got %v", err)
	}
}
