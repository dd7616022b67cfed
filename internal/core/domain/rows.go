package domain

import "time"

// Typed views over mirrored rows. The change stream hands back open maps;
// these decoders pick out the known fields and ignore everything else, so a
// column added upstream never breaks a screen.

// MemberFromRow decodes a socios row.
func MemberFromRow(row Row) Member {
	m := Member{
		ID:       stringField(row, "id"),
		FullName: stringField(row, "nombre"),
		Document: stringField(row, "documento"),
		Email:    stringField(row, "email"),
		Role:     Role(stringField(row, "rol")),
		Active:   boolField(row, "activo"),
	}
	if phone := stringField(row, "telefono"); phone != "" {
		m.Phone = &phone
	}
	if ts, ok := timeField(row, "creado_en"); ok {
		m.CreatedAt = ts
	}
	return m
}

// DueFromRow decodes a cuotas_socios row.
func DueFromRow(row Row) Due {
	return Due{
		ID:     stringField(row, "id"),
		Period: stringField(row, "periodo"),
		Amount: floatField(row, "importe"),
		Status: stringField(row, "estado"),
	}
}

// PaymentFromRow decodes a pagos row.
func PaymentFromRow(row Row) Payment {
	p := Payment{
		ID:       stringField(row, "id"),
		MemberID: stringField(row, "socio_id"),
		Amount:   floatField(row, "monto"),
	}
	if ts, ok := timeField(row, "pagado_en"); ok {
		p.PaidAt = ts
	}
	return p
}

func stringField(row Row, key string) string {
	if v, ok := row[key].(string); ok {
		return v
	}
	return ""
}

func boolField(row Row, key string) bool {
	v, _ := row[key].(bool)
	return v
}

func floatField(row Row, key string) float64 {
	switch v := row[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func timeField(row Row, key string) (time.Time, bool) {
	switch v := row[key].(type) {
	case time.Time:
		return v, true
	case string:
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
