package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/feder102/handball-agrupacion-api/internal/core/domain"
	"github.com/feder102/handball-agrupacion-api/internal/core/port"
	"github.com/feder102/handball-agrupacion-api/internal/usecase"
)

type staticRowSource struct {
	rows []domain.Row
}

func (s *staticRowSource) FetchRows(context.Context, string, int) ([]domain.Row, error) {
	return s.rows, nil
}

type silentSubscription struct {
	events chan domain.ChangeEvent
}

func (s *silentSubscription) Events() <-chan domain.ChangeEvent { return s.events }

func (s *silentSubscription) Unsubscribe() error {
	close(s.events)
	return nil
}

type silentStream struct{}

func (silentStream) Subscribe(context.Context, string, string) (port.Subscription, error) {
	return &silentSubscription{events: make(chan domain.ChangeEvent)}, nil
}

func TestTablesHandlerServesProjection(t *testing.T) {
	gin.SetMode(gin.TestMode)

	source := &staticRowSource{rows: []domain.Row{
		{"id": "s1", "nombre": "Ana"},
		{"id": "s2", "nombre": "Luis"},
	}}
	mirror := usecase.NewTableMirror(source, silentStream{}, "socios_feed", "socios", nil)
	if err := mirror.Open(context.Background()); err != nil {
		t.Fatalf("open mirror: %v", err)
	}
	defer mirror.Close()

	handler := NewTablesHandler(map[string]*usecase.TableMirror{"socios": mirror})

	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tables/socios", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp TableResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Table != "socios" || resp.Count != 2 || len(resp.Rows) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestTablesHandlerUnknownTable(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewTablesHandler(map[string]*usecase.TableMirror{})

	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tables/desconocida", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
