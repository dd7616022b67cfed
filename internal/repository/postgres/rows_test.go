package postgres

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/feder102/handball-agrupacion-api/internal/repository"
)

func TestRowRepository_FetchRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewRowRepository(mock)

	rows := pgxmock.NewRows([]string{"id", "nombre", "activo"}).
		AddRow("s1", "Ana García", true).
		AddRow("s2", "Luis Pérez", false)

	mock.ExpectQuery(`SELECT \* FROM socios`).WillReturnRows(rows)

	fetched, err := repo.FetchRows(context.Background(), "socios", 0)
	if err != nil {
		t.Fatalf("FetchRows returned error: %v", err)
	}

	if len(fetched) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(fetched))
	}
	if fetched[0]["id"] != "s1" || fetched[0]["nombre"] != "Ana García" {
		t.Fatalf("unexpected first row %v", fetched[0])
	}
	if fetched[1]["activo"] != false {
		t.Fatalf("unexpected second row %v", fetched[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRowRepository_FetchRowsAppliesLimit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewRowRepository(mock)

	rows := pgxmock.NewRows([]string{"id"}).AddRow("p1")
	mock.ExpectQuery(`SELECT \* FROM pagos LIMIT 50`).WillReturnRows(rows)

	fetched, err := repo.FetchRows(context.Background(), "pagos", 50)
	if err != nil {
		t.Fatalf("FetchRows returned error: %v", err)
	}
	if len(fetched) != 1 {
		t.Fatalf("expected 1 row, got %d", len(fetched))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRowRepository_FetchRowsRejectsUnknownTable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewRowRepository(mock)

	_, err = repo.FetchRows(context.Background(), "usuarios; DROP TABLE socios", 0)
	if !errors.Is(err, repository.ErrUnknownTable) {
		t.Fatalf("expected ErrUnknownTable, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected query issued: %v", err)
	}
}
