package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/feder102/handball-agrupacion-api/internal/core/port"
	"github.com/feder102/handball-agrupacion-api/internal/usecase"
)

type fakeIdentity struct {
	adminUserID string
	adminErr    error
	adminCalls  int
	phone       string
}

func (f *fakeIdentity) SignUp(context.Context, port.SignUpParams) (port.SignUpResult, error) {
	return port.SignUpResult{}, nil
}

func (f *fakeIdentity) AdminCreateUser(_ context.Context, params port.AdminCreateParams) (string, error) {
	f.adminCalls++
	return f.adminUserID, f.adminErr
}

func (f *fakeIdentity) LookupPhone(context.Context, string) (string, error) {
	return f.phone, nil
}

type fakeRPC struct {
	data   map[string]any
	err    error
	calls  int
	params port.MemberRPCParams
}

func (f *fakeRPC) CreateMember(_ context.Context, params port.MemberRPCParams) (map[string]any, error) {
	f.calls++
	f.params = params
	return f.data, f.err
}

func forwardingRouter(identity *fakeIdentity, rpc *fakeRPC, secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := usecase.NewForwardingService(identity, rpc, nil, secret, nil)
	handler := NewForwardingHandler(svc)

	router := gin.New()
	router.POST("/create-user", handler.CreateUser)
	router.POST("/admin/create-user", handler.AdminCreateUser)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body map[string]any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	encoded, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(encoded))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestCreateUserMissingFields(t *testing.T) {
	rpc := &fakeRPC{}
	router := forwardingRouter(&fakeIdentity{}, rpc, "secret")

	rr := postJSON(t, router, "/create-user", map[string]any{
		"userId":   "user-1",
		"fullName": "Ana García",
		"email":    "ana@example.com",
	}, nil)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if rpc.calls != 0 {
		t.Fatalf("rpc attempted with incomplete payload")
	}

	var resp MissingFieldsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Error != "Missing required fields" {
		t.Fatalf("unexpected error message %q", resp.Error)
	}
	if resp.Received.Document {
		t.Fatal("document flagged as received")
	}
	if !resp.Received.UserID || !resp.Received.FullName || !resp.Received.Email {
		t.Fatalf("present fields not flagged: %+v", resp.Received)
	}
}

func TestCreateUserForcesRoleWithoutSecret(t *testing.T) {
	rpc := &fakeRPC{data: map[string]any{"created": true}}
	router := forwardingRouter(&fakeIdentity{}, rpc, "secret")

	rr := postJSON(t, router, "/create-user", map[string]any{
		"userId":   "user-1",
		"fullName": "Ana García",
		"document": "30123456",
		"email":    "Ana@Example.com",
		"phone":    "+54 11 4444 5555",
		"role":     "admin",
	}, nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp CreateUserResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !resp.Success {
		t.Fatal("expected success envelope")
	}
	if resp.Payload.Role != "socio" {
		t.Fatalf("role not forced to socio: %q", resp.Payload.Role)
	}
	if resp.Payload.Email != "ana@example.com" {
		t.Fatalf("email not normalized: %q", resp.Payload.Email)
	}
	if rpc.params.Role != "socio" {
		t.Fatalf("rpc ran with role %q", rpc.params.Role)
	}
}

func TestCreateUserHonorsRoleWithSecret(t *testing.T) {
	rpc := &fakeRPC{data: map[string]any{"created": true}}
	router := forwardingRouter(&fakeIdentity{}, rpc, "secret")

	rr := postJSON(t, router, "/create-user", map[string]any{
		"userId":   "user-1",
		"fullName": "Ana García",
		"document": "30123456",
		"email":    "ana@example.com",
		"role":     "contador",
	}, map[string]string{"x-admin-secret": "secret"})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp CreateUserResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Payload.Role != "contador" {
		t.Fatalf("role not honored with secret: %q", resp.Payload.Role)
	}
}

func TestCreateUserRPCFailure(t *testing.T) {
	rpc := &fakeRPC{err: errors.New(`duplicate key value violates unique constraint "usuarios_documento_key"`)}
	router := forwardingRouter(&fakeIdentity{}, rpc, "secret")

	rr := postJSON(t, router, "/create-user", map[string]any{
		"userId":   "user-1",
		"fullName": "Ana García",
		"document": "30123456",
		"email":    "ana@example.com",
	}, nil)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}

	var resp CreateUserResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Success {
		t.Fatal("expected failure envelope")
	}
	if resp.RPC.Error != "Ese correo o documento ya está registrado. Probá iniciar sesión o recuperar la contraseña." {
		t.Fatalf("raw error leaked: %q", resp.RPC.Error)
	}
}

func TestAdminCreateUserRejectsMissingSecret(t *testing.T) {
	identity := &fakeIdentity{adminUserID: "admin-1"}
	rpc := &fakeRPC{}
	router := forwardingRouter(identity, rpc, "secret")

	rr := postJSON(t, router, "/admin/create-user", map[string]any{
		"email":    "ana@example.com",
		"password": "correct horse battery",
		"fullName": "Ana García",
		"document": "30123456",
		"role":     "operador",
	}, nil)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Error != "Unauthorized" {
		t.Fatalf("unexpected error %q", resp.Error)
	}
	if identity.adminCalls != 0 || rpc.calls != 0 {
		t.Fatal("provisioning attempted despite missing secret")
	}
}

func TestAdminCreateUserSuccess(t *testing.T) {
	identity := &fakeIdentity{adminUserID: "admin-1"}
	rpc := &fakeRPC{data: map[string]any{"ok": true}}
	router := forwardingRouter(identity, rpc, "secret")

	rr := postJSON(t, router, "/admin/create-user", map[string]any{
		"email":    "ana@example.com",
		"password": "correct horse battery",
		"fullName": "Ana García",
		"document": "30123456",
		"role":     "contador",
	}, map[string]string{"x-admin-secret": "secret"})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp AdminCreateUserResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !resp.Success || resp.UserID != "admin-1" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if rpc.params.Role != "contador" {
		t.Fatalf("role not taken verbatim: %q", rpc.params.Role)
	}
}

func TestAdminCreateUserMissingFields(t *testing.T) {
	router := forwardingRouter(&fakeIdentity{}, &fakeRPC{}, "secret")

	rr := postJSON(t, router, "/admin/create-user", map[string]any{
		"email":    "ana@example.com",
		"password": "correct horse battery",
	}, map[string]string{"x-admin-secret": "secret"})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
