package usecase

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feder102/handball-agrupacion-api/internal/core/domain"
	"github.com/feder102/handball-agrupacion-api/internal/core/port"
	"github.com/feder102/handball-agrupacion-api/internal/infra/logger"
)

// ForwardedCreateParams is the payload relayed by an already-authenticated
// client on behalf of a fresh identity signup.
type ForwardedCreateParams struct {
	UserID   string
	FullName string
	Document string
	Email    string
	Phone    string
	Role     domain.Role
}

// AdminCreateRequest is the privileged account-creation payload.
type AdminCreateRequest struct {
	Email    string
	Password string
	FullName string
	Document string
	Phone    string
	Role     domain.Role
}

// AdminCreateResult carries the outcome of a privileged creation: the new
// identity plus whatever the profile procedure returned.
type AdminCreateResult struct {
	UserID  string
	RPCData map[string]any
}

// ForwardingService backs the privileged endpoints: it executes the
// profile-creation procedure with elevated trust and, on the admin path,
// creates the identity first. Role escalation is gated on a shared secret.
type ForwardingService struct {
	identity  port.IdentityProvider
	rpc       port.MemberRPC
	publisher port.EventPublisher
	secret    string
	logger    *zap.Logger
	now       func() time.Time
}

// NewForwardingService wires the privileged provisioning paths. An empty
// secret disables role escalation and the admin endpoint entirely.
func NewForwardingService(
	identity port.IdentityProvider,
	rpc port.MemberRPC,
	publisher port.EventPublisher,
	secret string,
	log *zap.Logger,
) *ForwardingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ForwardingService{
		identity:  identity,
		rpc:       rpc,
		publisher: publisher,
		secret:    secret,
		logger:    log,
		now:       time.Now,
	}
}

// Authorized reports whether the presented secret matches the configured one.
// Always false when no secret is configured, so the privileged paths fail
// closed.
func (s *ForwardingService) Authorized(presented string) bool {
	if s.secret == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.secret), []byte(presented)) == 1
}

// CreateUser runs the profile procedure for an identity that already exists.
// Unauthorized callers get the lowest-privilege role no matter what they
// sent. A missing phone is backfilled from the identity record when possible.
func (s *ForwardingService) CreateUser(ctx context.Context, authorized bool, params ForwardedCreateParams) (map[string]any, error) {
	userID := strings.TrimSpace(params.UserID)
	fullName := strings.TrimSpace(params.FullName)
	document := strings.TrimSpace(params.Document)
	email := strings.ToLower(strings.TrimSpace(params.Email))
	phone := strings.TrimSpace(params.Phone)

	if userID == "" || fullName == "" || document == "" || email == "" {
		return nil, ErrMissingFields
	}

	role := domain.DefaultRole
	if authorized && params.Role != "" {
		role = params.Role
	}

	if phone == "" {
		looked, err := s.identity.LookupPhone(ctx, userID)
		if err != nil {
			s.logger.Warn("phone lookup failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		} else {
			phone = looked
		}
	}

	data, err := s.rpc.CreateMember(ctx, port.MemberRPCParams{
		UserID:   userID,
		Document: document,
		Email:    email,
		FullName: fullName,
		Phone:    phone,
		Role:     role,
	})
	if err != nil {
		return nil, fmt.Errorf("create member rpc: %w", err)
	}

	s.logger.Info("forwarded member creation completed",
		zap.String("user_id", userID),
		zap.String("email", logger.MaskEmail(email)),
		zap.String("role", string(role)),
		zap.Bool("authorized", authorized),
	)

	return data, nil
}

// AdminCreateUser creates the identity with confirmation pre-applied and
// runs the profile procedure with the requested role taken verbatim. The
// shared secret must match or nothing is attempted.
func (s *ForwardingService) AdminCreateUser(ctx context.Context, presented string, req AdminCreateRequest) (AdminCreateResult, error) {
	if !s.Authorized(presented) {
		return AdminCreateResult{}, ErrUnauthorized
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	fullName := strings.TrimSpace(req.FullName)
	document := strings.TrimSpace(req.Document)
	phone := strings.TrimSpace(req.Phone)

	if email == "" || req.Password == "" || fullName == "" || document == "" || req.Role == "" {
		return AdminCreateResult{}, ErrMissingFields
	}

	userID, err := s.identity.AdminCreateUser(ctx, port.AdminCreateParams{
		Email:    email,
		Password: req.Password,
		Document: document,
		FullName: fullName,
		Phone:    phone,
		Role:     req.Role,
	})
	if err != nil {
		return AdminCreateResult{}, fmt.Errorf("admin identity creation: %w", err)
	}

	data, err := s.rpc.CreateMember(ctx, port.MemberRPCParams{
		UserID:   userID,
		Document: document,
		Email:    email,
		FullName: fullName,
		Phone:    phone,
		Role:     req.Role,
	})
	if err != nil {
		return AdminCreateResult{UserID: userID}, fmt.Errorf("create member rpc: %w", err)
	}

	s.publishAdmin(ctx, userID, email, document, req.Role)

	s.logger.Info("admin provisioned member",
		zap.String("user_id", userID),
		zap.String("email", logger.MaskEmail(email)),
		zap.String("role", string(req.Role)),
	)

	return AdminCreateResult{UserID: userID, RPCData: data}, nil
}

func (s *ForwardingService) publishAdmin(ctx context.Context, userID, email, document string, role domain.Role) {
	if s.publisher == nil {
		return
	}
	event := domain.MemberProvisionedEvent{
		EventID:       uuid.NewString(),
		UserID:        userID,
		Email:         email,
		Document:      document,
		Role:          role,
		Method:        domain.ProvisionMethodAdmin,
		ProvisionedAt: s.now().UTC(),
	}
	if err := s.publisher.PublishMemberProvisioned(ctx, event); err != nil {
		s.logger.Warn("failed to publish provisioning event",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}
