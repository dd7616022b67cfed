package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/feder102/handball-agrupacion-api/internal/core/domain"
	"github.com/feder102/handball-agrupacion-api/internal/core/port"
)

// memberDB is the connection surface the member repository needs: plain
// statements plus transactions.
type memberDB interface {
	pgExecutor
	Begin(ctx context.Context) (pgx.Tx, error)
}

// MemberRepository is the direct, non-privileged write path into the profile
// tables. Access-control policies on the hosted platform may reject these
// writes; errors are returned verbatim so callers can surface them.
type MemberRepository struct {
	db      memberDB
	builder squirrel.StatementBuilderType
}

// NewMemberRepository wires a PostgreSQL-backed member repository.
func NewMemberRepository(db memberDB) *MemberRepository {
	return &MemberRepository{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateProfile inserts the identity-link row and the member row in one
// transaction. This is the fallback used when no privileged forwarding
// endpoint is configured.
func (r *MemberRepository) CreateProfile(ctx context.Context, member domain.Member) error {
	role := member.Role
	if !role.Valid() {
		role = domain.DefaultRole
	}

	createdAt := member.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var phoneValue any
	if member.Phone != nil && *member.Phone != "" {
		phoneValue = *member.Phone
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin profile tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	userSQL, userArgs, err := r.builder.Insert("usuarios").
		Columns("id", "documento", "email", "nombre", "telefono", "rol", "creado_en").
		Values(member.ID, member.Document, member.Email, member.FullName, phoneValue, role, createdAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert usuario sql: %w", err)
	}
	if _, err := tx.Exec(ctx, userSQL, userArgs...); err != nil {
		return fmt.Errorf("insert usuario: %w", err)
	}

	memberSQL, memberArgs, err := r.builder.Insert("socios").
		Columns("usuario_id", "nombre", "documento", "activo", "alta_en").
		Values(member.ID, member.FullName, member.Document, true, createdAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert socio sql: %w", err)
	}
	if _, err := tx.Exec(ctx, memberSQL, memberArgs...); err != nil {
		return fmt.Errorf("insert socio: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit profile tx: %w", err)
	}

	return nil
}

var _ port.ProfileStore = (*MemberRepository)(nil)
