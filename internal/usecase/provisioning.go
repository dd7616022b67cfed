package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feder102/handball-agrupacion-api/internal/core/domain"
	"github.com/feder102/handball-agrupacion-api/internal/core/port"
	"github.com/feder102/handball-agrupacion-api/internal/infra/logger"
	"github.com/feder102/handball-agrupacion-api/internal/infra/security"
)

const minDocumentLength = 6

// ProvisioningService runs the self-service registration flow: identity
// signup at the provider, then profile creation through the privileged
// forwarder when one is configured, or directly against the database
// otherwise.
type ProvisioningService struct {
	identity  port.IdentityProvider
	forwarder port.ProfileForwarder
	profiles  port.ProfileStore
	publisher port.EventPublisher
	passwords *security.PasswordValidator
	logger    *zap.Logger
	now       func() time.Time
}

// NewProvisioningService wires the self-service registration flow. The
// forwarder is optional; pass nil to always take the direct database path.
func NewProvisioningService(
	identity port.IdentityProvider,
	forwarder port.ProfileForwarder,
	profiles port.ProfileStore,
	publisher port.EventPublisher,
	passwords *security.PasswordValidator,
	log *zap.Logger,
) *ProvisioningService {
	if log == nil {
		log = zap.NewNop()
	}
	if passwords == nil {
		passwords = security.DefaultPasswordValidator()
	}
	return &ProvisioningService{
		identity:  identity,
		forwarder: forwarder,
		profiles:  profiles,
		publisher: publisher,
		passwords: passwords,
		logger:    log,
		now:       time.Now,
	}
}

// Provision creates the identity and its profile. The public path always
// forces the lowest-privilege role regardless of what the caller asked for.
// Input validation failures return before any external call is made.
func (s *ProvisioningService) Provision(ctx context.Context, req domain.ProvisioningRequest) (domain.ProvisioningResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	document := strings.TrimSpace(req.Document)
	phone := strings.TrimSpace(req.Phone)
	fullName := strings.TrimSpace(req.FullName)

	if document == "" {
		return domain.ProvisioningResult{}, ErrDocumentRequired
	}
	if len([]rune(document)) < minDocumentLength {
		return domain.ProvisioningResult{}, ErrDocumentTooShort
	}
	if err := s.passwords.Validate(req.Password); err != nil {
		return domain.ProvisioningResult{}, err
	}

	role := domain.DefaultRole

	signUp, err := s.identity.SignUp(ctx, port.SignUpParams{
		Email:    email,
		Password: req.Password,
		Document: document,
		FullName: fullName,
		Phone:    phone,
		Role:     role,
	})
	if err != nil {
		return domain.ProvisioningResult{}, fmt.Errorf("identity signup: %w", err)
	}
	if signUp.UserID == "" {
		return domain.ProvisioningResult{}, ErrIdentityNoUser
	}

	// The profile is created even when confirmation is pending, so the row
	// exists before the member first logs in.
	if err := s.createProfile(ctx, signUp.UserID, email, document, fullName, phone, role); err != nil {
		// The identity account exists without a profile at this point.
		// There is no compensation; a retry surfaces the provider's
		// already-registered error.
		s.logger.Warn("member provisioning left pending",
			zap.String("user_id", signUp.UserID),
			zap.String("email", logger.MaskEmail(email)),
			zap.Error(err),
		)
		return domain.ProvisioningResult{}, err
	}

	result := domain.ProvisioningResult{
		UserID:               signUp.UserID,
		RequiresConfirmation: !signUp.HasSession,
	}

	s.publish(ctx, domain.MemberProvisionedEvent{
		EventID:              uuid.NewString(),
		UserID:               signUp.UserID,
		Email:                email,
		Document:             document,
		Role:                 role,
		Method:               domain.ProvisionMethodSelfService,
		RequiresConfirmation: result.RequiresConfirmation,
		ProvisionedAt:        s.now().UTC(),
	})

	s.logger.Info("member provisioned",
		zap.String("user_id", signUp.UserID),
		zap.String("email", logger.MaskEmail(email)),
		zap.String("document", logger.MaskDocument(document)),
		zap.Bool("requires_confirmation", result.RequiresConfirmation),
	)

	return result, nil
}

func (s *ProvisioningService) createProfile(ctx context.Context, userID, email, document, fullName, phone string, role domain.Role) error {
	if s.forwarder != nil {
		err := s.forwarder.ForwardCreateUser(ctx, port.MemberRPCParams{
			UserID:   userID,
			Document: document,
			Email:    email,
			FullName: fullName,
			Phone:    phone,
			Role:     role,
		})
		if err != nil {
			return fmt.Errorf("forward profile creation: %w", err)
		}
		return nil
	}

	var phonePtr *string
	if phone != "" {
		phonePtr = &phone
	}

	err := s.profiles.CreateProfile(ctx, domain.Member{
		ID:        userID,
		FullName:  fullName,
		Document:  document,
		Email:     email,
		Phone:     phonePtr,
		Role:      role,
		Active:    true,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (s *ProvisioningService) publish(ctx context.Context, event domain.MemberProvisionedEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishMemberProvisioned(ctx, event); err != nil {
		s.logger.Warn("failed to publish provisioning event",
			zap.String("user_id", event.UserID),
			zap.Error(err),
		)
	}
}
