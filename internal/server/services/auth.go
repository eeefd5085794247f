// Package services contains the server-side business logic behind the HTTP
// API. Services load state through the repository manager, consult the
// lifecycle package for guards and persist every multi-record transition in
// one transaction together with its notification intent.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fudbi/fudbi/internal/common"
	"github.com/fudbi/fudbi/internal/logging"
	"github.com/fudbi/fudbi/internal/server/identity"
	"github.com/fudbi/fudbi/internal/server/models"
	"github.com/fudbi/fudbi/internal/server/notify"
	"github.com/fudbi/fudbi/internal/server/repositories/repomanager"
)

const (
	MsgSignedUp  = "Account created! Please check your email for verification code."
	MsgConfirmed = "Email verified successfully! You can now sign in."

	defaultCountryCode = "+91"
)

type SignUpRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Name     string      `json:"name"`
	Phone    string      `json:"phone"`
	City     string      `json:"city"`
	Role     models.Role `json:"role"`
}

// AuthService handles sign-up, email confirmation and cookie sessions on top
// of an identity provider.
type AuthService struct {
	repomanager repomanager.RepositoryManager
	provider    identity.Provider
	sessions    SessionStore
	mailer      notify.Mailer
	codeTTL     time.Duration
	logger      logging.Logger
	now         func() time.Time
}

func NewAuthService(m repomanager.RepositoryManager, provider identity.Provider, sessions SessionStore,
	mailer notify.Mailer, codeTTL time.Duration, logger logging.Logger) *AuthService {
	return &AuthService{
		repomanager: m,
		provider:    provider,
		sessions:    sessions,
		mailer:      mailer,
		codeTTL:     codeTTL,
		logger:      logger.With("module", "auth"),
		now:         time.Now,
	}
}

// NormalizePhone prefixes numbers without a country code with +91.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" || strings.HasPrefix(phone, "+") {
		return phone
	}
	return defaultCountryCode + phone
}

// SignUp registers a host or volunteer. Admins are created out of band with
// CreateAdmin.
func (s *AuthService) SignUp(ctx context.Context, req *SignUpRequest) error {
	if err := validateSignUp(req); err != nil {
		return err
	}
	if req.Role == models.RoleAdmin {
		return fmt.Errorf("%w: role must be host or volunteer", common.ErrorValidation)
	}
	_, code, err := s.register(ctx, req)
	if err != nil {
		return err
	}
	s.sendCode(ctx, req, code)
	return nil
}

// CreateAdmin registers and immediately confirms an account of any role.
func (s *AuthService) CreateAdmin(ctx context.Context, req *SignUpRequest) (*models.User, error) {
	if err := validateSignUp(req); err != nil {
		return nil, err
	}
	user, code, err := s.register(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.Confirm(ctx, req.Email, code); err != nil {
		return nil, err
	}
	user.Verified = true
	return user, nil
}

func validateSignUp(req *SignUpRequest) error {
	var missing []string
	if strings.TrimSpace(req.Email) == "" {
		missing = append(missing, "email")
	}
	if req.Password == "" {
		missing = append(missing, "password")
	}
	if strings.TrimSpace(req.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(req.City) == "" {
		missing = append(missing, "city")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", common.ErrorValidation, strings.Join(missing, ", "))
	}
	if !req.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", common.ErrorValidation, req.Role)
	}
	return nil
}

func (s *AuthService) register(ctx context.Context, req *SignUpRequest) (*models.User, string, error) {
	res, err := s.provider.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		ID:        res.UserID,
		Email:     identity.NormalizeEmail(req.Email),
		Phone:     NormalizePhone(req.Phone),
		Name:      strings.TrimSpace(req.Name),
		City:      strings.TrimSpace(req.City),
		Role:      req.Role,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repomanager.Repositories().Users.Create(ctx, user); err != nil {
		if rerr := s.provider.Remove(ctx, user.Email); rerr != nil {
			s.logger.Error(ctx, "failed to remove orphan identity", "email", user.Email, "error", rerr)
		}
		return nil, "", fmt.Errorf("error creating user profile: %w", err)
	}
	s.logger.Info(ctx, "user registered", "user_id", user.ID, "role", user.Role, "city", user.City)
	return user, res.Code, nil
}

func (s *AuthService) sendCode(ctx context.Context, req *SignUpRequest, code string) {
	err := s.mailer.Send(ctx, notify.Message{
		To:      identity.NormalizeEmail(req.Email),
		ToName:  req.Name,
		Subject: "Your " + common.AppName + " verification code",
		Body: fmt.Sprintf("Hello %s,\n\nYour verification code is %s. It expires in %s.\n\n%s",
			req.Name, code, s.codeTTL, common.AppName),
	})
	if err != nil {
		s.logger.Error(ctx, "failed to send verification code", "email", req.Email, "error", err)
	}
}

// Confirm verifies the emailed code and marks the profile verified.
func (s *AuthService) Confirm(ctx context.Context, email, code string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(code) == "" {
		return fmt.Errorf("%w: email and code are required", common.ErrorValidation)
	}
	userID, err := s.provider.Confirm(ctx, email, code)
	if err != nil {
		return err
	}
	if err := s.repomanager.Repositories().Users.Update(ctx, userID, map[string]any{"verified": true}); err != nil {
		return fmt.Errorf("error marking user verified: %w", err)
	}
	return nil
}

// SignIn authenticates and opens a session, returning its token.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (string, *models.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", nil, fmt.Errorf("%w: email and password are required", common.ErrorValidation)
	}
	userID, err := s.provider.Authenticate(ctx, email, password)
	if err != nil {
		return "", nil, err
	}
	user, err := s.repomanager.Repositories().Users.Get(ctx, userID)
	if err != nil {
		return "", nil, fmt.Errorf("error loading user profile: %w", err)
	}
	user.Verified = true

	token, err := s.sessions.Create(ctx, user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Revoke(ctx, token)
}

// Session resolves token to its user, or nil when there is no live session.
func (s *AuthService) Session(ctx context.Context, token string) (*models.UserContext, error) {
	uc, err := s.sessions.Lookup(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, nil
		}
		return nil, err
	}
	return uc, nil
}
