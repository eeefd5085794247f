package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fudbi/fudbi/internal/common"
	"github.com/fudbi/fudbi/internal/server/models"
	"github.com/fudbi/fudbi/internal/server/repositories/identities"
)

const (
	MinPasswordLength = 8
	CodeLength        = 6
)

var generateHash = bcrypt.GenerateFromPassword

// LocalProvider keeps bcrypt-hashed credentials in the identities repository.
type LocalProvider struct {
	repo    identities.Repository
	codeTTL time.Duration
	cost    int
	now     func() time.Time
}

func NewLocalProvider(repo identities.Repository, codeTTL time.Duration) *LocalProvider {
	return &LocalProvider{repo: repo, codeTTL: codeTTL, cost: bcrypt.DefaultCost, now: time.Now}
}

// NormalizeEmail is the identity key form of an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CheckPassword enforces the password policy.
func CheckPassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrInvalidPassword
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return ErrInvalidPassword
	}
	return nil
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*SignUpResult, error) {
	email = NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", common.ErrorValidation)
	}
	if err := CheckPassword(password); err != nil {
		return nil, err
	}

	passwordHash, err := generateHash([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	code, err := common.MakeRandDigits(CodeLength)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	codeHash, err := generateHash([]byte(code), p.cost)
	if err != nil {
		return nil, fmt.Errorf("hash code: %w", err)
	}

	now := p.now().UTC()
	id := &models.Identity{
		Email:         email,
		UserID:        uuid.NewString(),
		PasswordHash:  passwordHash,
		CodeHash:      codeHash,
		CodeExpiresAt: now.Add(p.codeTTL),
		CreatedAt:     now,
	}
	if err := p.repo.Create(ctx, id); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, ErrUsernameExists
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}
	return &SignUpResult{UserID: id.UserID, Code: code}, nil
}

// Confirm checks code against the pending confirmation. Confirming an already
// confirmed identity succeeds.
func (p *LocalProvider) Confirm(ctx context.Context, email, code string) (string, error) {
	email = NormalizeEmail(email)
	id, err := p.repo.Get(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", ErrCodeMismatch
		}
		return "", fmt.Errorf("load identity: %w", err)
	}
	if id.Confirmed {
		return id.UserID, nil
	}
	if p.now().After(id.CodeExpiresAt) {
		return "", ErrExpiredCode
	}
	if bcrypt.CompareHashAndPassword(id.CodeHash, []byte(strings.TrimSpace(code))) != nil {
		return "", ErrCodeMismatch
	}

	if err := p.repo.Update(ctx, email, map[string]any{"confirmed": true, "codeHash": nil}); err != nil {
		return "", fmt.Errorf("confirm identity: %w", err)
	}
	return id.UserID, nil
}

func (p *LocalProvider) Authenticate(ctx context.Context, email, password string) (string, error) {
	id, err := p.repo.Get(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", ErrNotAuthorized
		}
		return "", fmt.Errorf("load identity: %w", err)
	}
	if bcrypt.CompareHashAndPassword(id.PasswordHash, []byte(password)) != nil {
		return "", ErrNotAuthorized
	}
	if !id.Confirmed {
		return "", ErrUserNotConfirmed
	}
	return id.UserID, nil
}

func (p *LocalProvider) Remove(ctx context.Context, email string) error {
	err := p.repo.Delete(ctx, NormalizeEmail(email))
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("remove identity: %w", err)
	}
	return nil
}
