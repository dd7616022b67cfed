package usecase

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validation and flow sentinels. The messages double as friendly-error
// matching keys, so they stay verbatim.
var (
	ErrDocumentRequired = errors.New("el documento es obligatorio")
	ErrDocumentTooShort = errors.New("el documento debe tener al menos 6 caracteres")
	ErrIdentityNoUser   = errors.New("no se pudo crear el usuario. Intentá nuevamente")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrMissingFields    = errors.New("missing required fields")
)

// friendlyMessages maps raw provider and database failures onto the messages
// members actually see. First substring match wins; matching is
// case-insensitive on the raw text.
var friendlyMessages = []struct {
	substring string
	message   string
}{
	{
		substring: "documento ya existe para otro usuario",
		message:   "Ese documento ya está registrado en el sistema. Si es tuyo, probá recuperar tu contraseña.",
	},
	{
		substring: "duplicate key value violates unique constraint",
		message:   "Ese correo o documento ya está registrado. Probá iniciar sesión o recuperar la contraseña.",
	},
	{
		substring: "el documento es obligatorio",
		message:   "Debés ingresar un número de documento válido para registrarte.",
	},
	{
		substring: "new row violates row-level security policy",
		message:   "Error de permisos al crear tu perfil. Contactá al administrador del club.",
	},
	{
		substring: "user already registered",
		message:   "Ya existe una cuenta con ese correo electrónico. Probá iniciar sesión.",
	},
}

var rateLimitPattern = regexp.MustCompile(`(?i)after\s+(\d+)\s+seconds`)

// FriendlyMessage rewrites a raw failure into the member-facing message.
// Unrecognized errors pass through verbatim.
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}

	raw := err.Error()
	lower := strings.ToLower(raw)

	for _, candidate := range friendlyMessages {
		if strings.Contains(lower, candidate.substring) {
			return candidate.message
		}
	}

	if match := rateLimitPattern.FindStringSubmatch(raw); match != nil {
		return fmt.Sprintf("Por seguridad podés intentarlo nuevamente en %s segundos.", match[1])
	}

	return raw
}
