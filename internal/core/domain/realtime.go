package domain

import "fmt"

// ChangeType enumerates the mutation kinds delivered by the table change stream.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// Row is a single record of a mirrored table. The change stream delivers rows
// as open field maps; typed views are decoded on demand.
type Row map[string]any

// ChangeEvent is one mutation observed on a remote table. New is populated for
// inserts and updates, Old for updates and deletes.
type ChangeEvent struct {
	Type   ChangeType
	Schema string
	Table  string
	New    Row
	Old    Row
}

// RowIdentifier resolves the identity of a row: the "id" field when present,
// otherwise "label". Only string and numeric values qualify; rows without
// either have no identity and cannot be targeted by updates or deletes.
func RowIdentifier(row Row) (string, bool) {
	if row == nil {
		return "", false
	}
	candidate, ok := row["id"]
	if !ok || candidate == nil {
		candidate, ok = row["label"]
		if !ok || candidate == nil {
			return "", false
		}
	}

	switch v := candidate.(type) {
	case string:
		return v, true
	case int:
		return fmt.Sprintf("%d", v), true
	case int32:
		return fmt.Sprintf("%d", v), true
	case int64:
		return fmt.Sprintf("%d", v), true
	case float32:
		return trimFloat(float64(v)), true
	case float64:
		return trimFloat(v), true
	default:
		return "", false
	}
}

// JSON numbers decode as float64; identifiers are almost always integral, so
// render them without a fractional part when possible.
func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", f)
}

// Projection is the ordered local copy of a remote table, newest insert first.
// Apply is idempotent-safe for unmatched or unresolvable events: it never
// fails, it simply leaves the projection untouched.
type Projection struct {
	rows []Row
}

// Seed replaces the projection contents with the result of a bulk fetch.
func (p *Projection) Seed(rows []Row) {
	p.rows = append(p.rows[:0], rows...)
}

// Apply mutates the projection according to a single change event.
//
// Inserts prepend unconditionally; duplicate inserts produce duplicate
// entries, which is a tolerated property of the stream rather than a bug.
// Updates replace the matching row in place and are dropped when no row
// matches. Deletes remove the matching row and are a no-op otherwise.
func (p *Projection) Apply(event ChangeEvent) {
	switch event.Type {
	case ChangeInsert:
		if event.New == nil {
			return
		}
		p.rows = append([]Row{event.New}, p.rows...)
	case ChangeUpdate:
		id, ok := RowIdentifier(event.New)
		if !ok {
			return
		}
		for i, row := range p.rows {
			if existing, ok := RowIdentifier(row); ok && existing == id {
				p.rows[i] = event.New
			}
		}
	case ChangeDelete:
		id, ok := RowIdentifier(event.Old)
		if !ok {
			return
		}
		filtered := p.rows[:0]
		for _, row := range p.rows {
			if existing, ok := RowIdentifier(row); ok && existing == id {
				continue
			}
			filtered = append(filtered, row)
		}
		p.rows = filtered
	}
}

// Rows returns a copy of the projection contents in order.
func (p *Projection) Rows() []Row {
	out := make([]Row, len(p.rows))
	copy(out, p.rows)
	return out
}

// Len reports the number of rows currently projected.
func (p *Projection) Len() int {
	return len(p.rows)
}
