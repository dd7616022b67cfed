package postgres

import (
	"context"
	"fmt"

	"github.com/feder102/handball-agrupacion-api/internal/core/domain"
	"github.com/feder102/handball-agrupacion-api/internal/core/port"
	"github.com/feder102/handball-agrupacion-api/internal/repository"
)

// mirroredTables is the allowlist of tables screens may mirror. Table names
// are interpolated into SQL, so nothing outside this set is ever queried.
var mirroredTables = map[string]bool{
	"socios":        true,
	"cuotas_socios": true,
	"pagos":         true,
	"reportes_view": true,
}

// RowRepository serves the bulk reads that seed table mirrors. Rows come back
// as open field maps; the mirror does not interpret them.
type RowRepository struct {
	exec pgExecutor
}

// NewRowRepository wires a PostgreSQL-backed row source.
func NewRowRepository(exec pgExecutor) *RowRepository {
	return &RowRepository{exec: exec}
}

// FetchRows reads the current contents of an allowlisted table. A limit of
// zero means unbounded.
func (r *RowRepository) FetchRows(ctx context.Context, table string, limit int) ([]domain.Row, error) {
	if !mirroredTables[table] {
		return nil, fmt.Errorf("%w: %s", repository.ErrUnknownTable, table)
	}

	query := fmt.Sprintf("SELECT * FROM %s", table)
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}

	rows, err := r.exec.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	out := make([]domain.Row, 0, 64)

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read %s row: %w", table, err)
		}

		row := make(domain.Row, len(fields))
		for i, field := range fields {
			if i < len(values) {
				row[field.Name] = values[i]
			}
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", table, err)
	}

	return out, nil
}

var _ port.RowSource = (*RowRepository)(nil)
