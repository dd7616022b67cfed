package port

import (
	"context"

	"github.com/feder102/handball-agrupacion-api/internal/core/domain"
)

// SignUpParams is the self-service identity creation payload. Profile fields
// travel as auxiliary metadata so the platform trigger can build the profile
// row even before the service gets a chance to.
type SignUpParams struct {
	Email    string
	Password string
	Document string
	FullName string
	Phone    string
	Role     domain.Role
}

// SignUpResult reports the identity created by the provider. Session absence
// means the provider wants an out-of-band confirmation before first login.
type SignUpResult struct {
	UserID      string
	AccessToken string
	HasSession  bool
}

// AdminCreateParams is the privileged account-creation payload. It bypasses
// self-service signup semantics, so there is never a confirmation step.
type AdminCreateParams struct {
	Email    string
	Password string
	Document string
	FullName string
	Phone    string
	Role     domain.Role
}

// IdentityProvider is the external system of record for login credentials.
type IdentityProvider interface {
	SignUp(ctx context.Context, params SignUpParams) (SignUpResult, error)
	AdminCreateUser(ctx context.Context, params AdminCreateParams) (string, error)
	// LookupPhone retrieves the phone stored on the identity record, falling
	// back to the signup metadata. Returns empty when none is known.
	LookupPhone(ctx context.Context, userID string) (string, error)
}
