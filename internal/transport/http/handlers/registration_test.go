package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/feder102/handball-agrupacion-api/internal/core/domain"
	"github.com/feder102/handball-agrupacion-api/internal/core/port"
	"github.com/feder102/handball-agrupacion-api/internal/infra/security"
	"github.com/feder102/handball-agrupacion-api/internal/usecase"
)

var errDuplicateUser = errors.New("User already registered")

type fakeSignUpIdentity struct {
	result port.SignUpResult
	err    error
	calls  int
}

func (f *fakeSignUpIdentity) SignUp(context.Context, port.SignUpParams) (port.SignUpResult, error) {
	f.calls++
	return f.result, f.err
}

func (f *fakeSignUpIdentity) AdminCreateUser(context.Context, port.AdminCreateParams) (string, error) {
	return "", nil
}

func (f *fakeSignUpIdentity) LookupPhone(context.Context, string) (string, error) {
	return "", nil
}

type fakeProfiles struct {
	err   error
	calls int
}

func (f *fakeProfiles) CreateProfile(context.Context, domain.Member) error {
	f.calls++
	return f.err
}

func registrationRouter(identity port.IdentityProvider, profiles port.ProfileStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := usecase.NewProvisioningService(identity, nil, profiles, nil, security.DefaultPasswordValidator(), nil)
	handler := NewRegistrationHandler(svc)

	router := gin.New()
	router.POST("/api/v1/members/register", handler.Register)
	return router
}

func TestRegisterSuccess(t *testing.T) {
	identity := &fakeSignUpIdentity{result: port.SignUpResult{UserID: "user-1", HasSession: true}}
	profiles := &fakeProfiles{}
	router := registrationRouter(identity, profiles)

	rr := postJSON(t, router, "/api/v1/members/register", map[string]any{
		"fullName": "Ana García",
		"email":    "ana@example.com",
		"password": "correct horse battery",
		"document": "30123456",
	}, nil)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp RegisterResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.UserID != "user-1" || resp.RequiresConfirmation {
		t.Fatalf("unexpected response %+v", resp)
	}
	if profiles.calls != 1 {
		t.Fatalf("expected one profile insert, got %d", profiles.calls)
	}
}

func TestRegisterRequiresConfirmation(t *testing.T) {
	identity := &fakeSignUpIdentity{result: port.SignUpResult{UserID: "user-2", HasSession: false}}
	profiles := &fakeProfiles{}
	router := registrationRouter(identity, profiles)

	rr := postJSON(t, router, "/api/v1/members/register", map[string]any{
		"fullName": "Luis Pérez",
		"email":    "luis@example.com",
		"password": "correct horse battery",
		"document": "27999888",
	}, nil)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}

	var resp RegisterResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !resp.RequiresConfirmation {
		t.Fatal("expected requiresConfirmation")
	}
	if resp.Message == "" {
		t.Fatal("expected confirmation hint message")
	}
	if profiles.calls != 1 {
		t.Fatalf("profile not attempted before confirmation: %d calls", profiles.calls)
	}
}

func TestRegisterShortDocument(t *testing.T) {
	identity := &fakeSignUpIdentity{}
	router := registrationRouter(identity, &fakeProfiles{})

	rr := postJSON(t, router, "/api/v1/members/register", map[string]any{
		"fullName": "Ana García",
		"email":    "ana@example.com",
		"password": "correct horse battery",
		"document": "12345",
	}, nil)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if identity.calls != 0 {
		t.Fatal("identity provider called despite invalid document")
	}
}

func TestRegisterFriendlyErrorOnDuplicate(t *testing.T) {
	identity := &fakeSignUpIdentity{err: errDuplicateUser}
	router := registrationRouter(identity, &fakeProfiles{})

	rr := postJSON(t, router, "/api/v1/members/register", map[string]any{
		"fullName": "Ana García",
		"email":    "ana@example.com",
		"password": "correct horse battery",
		"document": "30123456",
	}, nil)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !strings.Contains(resp.Error, "Ya existe una cuenta") {
		t.Fatalf("raw provider error leaked: %q", resp.Error)
	}
}
