package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/feder102/handball-agrupacion-api/internal/core/domain"
)

func TestMemberRepository_CreateProfile(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewMemberRepository(mock)

	phone := "+54 11 4444 5555"
	createdAt := time.Now().UTC()
	member := domain.Member{
		ID:        "user-1",
		FullName:  "Ana García",
		Document:  "30123456",
		Email:     "ana@example.com",
		Phone:     &phone,
		Role:      domain.RoleSocio,
		Active:    true,
		CreatedAt: createdAt,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO usuarios`).
		WithArgs(member.ID, member.Document, member.Email, member.FullName, phone, domain.RoleSocio, createdAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO socios`).
		WithArgs(member.ID, member.FullName, member.Document, true, createdAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	if err := repo.CreateProfile(context.Background(), member); err != nil {
		t.Fatalf("CreateProfile returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMemberRepository_CreateProfileDefaultsInvalidRole(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewMemberRepository(mock)

	createdAt := time.Now().UTC()
	member := domain.Member{
		ID:        "user-2",
		FullName:  "Luis Pérez",
		Document:  "27999888",
		Email:     "luis@example.com",
		Role:      domain.Role("superusuario"),
		CreatedAt: createdAt,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO usuarios`).
		WithArgs(member.ID, member.Document, member.Email, member.FullName, nil, domain.DefaultRole, createdAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO socios`).
		WithArgs(member.ID, member.FullName, member.Document, true, createdAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	if err := repo.CreateProfile(context.Background(), member); err != nil {
		t.Fatalf("CreateProfile returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMemberRepository_CreateProfileRollsBackOnFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewMemberRepository(mock)

	createdAt := time.Now().UTC()
	member := domain.Member{
		ID:        "user-3",
		FullName:  "Ana García",
		Document:  "30123456",
		Email:     "ana@example.com",
		Role:      domain.RoleSocio,
		CreatedAt: createdAt,
	}

	insertErr := errors.New(`duplicate key value violates unique constraint "usuarios_documento_key"`)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO usuarios`).
		WithArgs(member.ID, member.Document, member.Email, member.FullName, nil, domain.RoleSocio, createdAt).
		WillReturnError(insertErr)
	mock.ExpectRollback()

	err = repo.CreateProfile(context.Background(), member)
	if err == nil {
		t.Fatal("expected insert failure to surface")
	}
	if !errors.Is(err, insertErr) {
		t.Fatalf("database error not wrapped: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
