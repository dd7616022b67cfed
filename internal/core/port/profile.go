package port

import (
	"context"

	"github.com/feder102/handball-agrupacion-api/internal/core/domain"
)

// MemberRPCParams mirrors the arguments of the platform stored procedure that
// creates the profile row and its identity link transactionally.
type MemberRPCParams struct {
	UserID   string
	Document string
	Email    string
	FullName string
	Phone    string
	Role     domain.Role
}

// MemberRPC executes the privileged profile-creation procedure with elevated
// trust. The returned payload is whatever the procedure reports on success.
type MemberRPC interface {
	CreateMember(ctx context.Context, params MemberRPCParams) (map[string]any, error)
}

// ProfileStore is the direct, non-privileged write path into the profile
// tables. Access-control policies may reject these writes; callers surface
// such failures verbatim.
type ProfileStore interface {
	CreateProfile(ctx context.Context, member domain.Member) error
}

// ProfileForwarder posts the full provisioning payload to the privileged
// forwarding server, which performs the RPC server-side.
type ProfileForwarder interface {
	ForwardCreateUser(ctx context.Context, params MemberRPCParams) error
}
