package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fudbi/fudbi/internal/common"
	"github.com/fudbi/fudbi/internal/logging"
	"github.com/fudbi/fudbi/internal/server/identity"
	"github.com/fudbi/fudbi/internal/server/models"
	"github.com/fudbi/fudbi/internal/server/repositories/repomanager"
)

func newAuthService(t *testing.T) (*AuthService, *repomanager.MemoryRepositoryManager, *captureMailer) {
	t.Helper()
	rm := repomanager.NewMemoryRepositoryManager()
	repos := rm.Repositories()
	provider := identity.NewLocalProvider(repos.Identities, time.Hour)
	sessions := NewJWTSessionStore(repos.Sessions, "test-secret", time.Hour)
	mailer := &captureMailer{}
	return NewAuthService(rm, provider, sessions, mailer, time.Hour, logging.Nop{}), rm, mailer
}

var codeRe = regexp.MustCompile(`code is (\d{6})`)

func signUp(t *testing.T, s *AuthService, mailer *captureMailer, email string) string {
	t.Helper()
	require.NoError(t, s.SignUp(context.Background(), &SignUpRequest{
		Email: email, Password: "Secret123", Name: "Asha", Phone: "9876543210", City: "Pune", Role: models.RoleHost,
	}))
	last := mailer.sent[len(mailer.sent)-1]
	m := codeRe.FindStringSubmatch(last.Body)
	require.Len(t, m, 2, "verification mail should carry the code")
	return m[1]
}

func TestAuthService_SignUpConfirmSignIn(t *testing.T) {
	s, rm, mailer := newAuthService(t)
	ctx := context.Background()

	code := signUp(t, s, mailer, " Asha@Example.com ")
	assert.Equal(t, "asha@example.com", mailer.sent[0].To)

	users, err := rm.Repositories().Users.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "+919876543210", users[0].Phone)
	assert.False(t, users[0].Verified)

	_, _, err = s.SignIn(ctx, "asha@example.com", "Secret123")
	assert.ErrorIs(t, err, identity.ErrUserNotConfirmed)

	assert.ErrorIs(t, s.Confirm(ctx, "asha@example.com", "000000"), identity.ErrCodeMismatch)
	require.NoError(t, s.Confirm(ctx, "asha@example.com", code))
	require.NoError(t, s.Confirm(ctx, "asha@example.com", code))

	u, err := rm.Repositories().Users.Get(ctx, users[0].ID)
	require.NoError(t, err)
	assert.True(t, u.Verified)

	_, _, err = s.SignIn(ctx, "asha@example.com", "wrong-Pass1")
	assert.ErrorIs(t, err, identity.ErrNotAuthorized)

	token, user, err := s.SignIn(ctx, "ASHA@example.com", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, users[0].ID, user.ID)

	uc, err := s.Session(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, uc)
	assert.Equal(t, models.RoleHost, uc.Role)
	assert.Equal(t, "Pune", uc.City)

	require.NoError(t, s.SignOut(ctx, token))
	uc, err = s.Session(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, uc)
}

func TestAuthService_SignUpValidation(t *testing.T) {
	s, _, mailer := newAuthService(t)
	ctx := context.Background()

	err := s.SignUp(ctx, &SignUpRequest{Email: "a@b.io", Password: "Secret123", City: "Pune", Role: models.RoleHost})
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.Contains(t, err.Error(), "name")

	err = s.SignUp(ctx, &SignUpRequest{Email: "a@b.io", Password: "Secret123", Name: "A", City: "Pune", Role: "chef"})
	assert.ErrorIs(t, err, common.ErrorValidation)

	err = s.SignUp(ctx, &SignUpRequest{Email: "a@b.io", Password: "Secret123", Name: "A", City: "Pune", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, common.ErrorValidation)

	err = s.SignUp(ctx, &SignUpRequest{Email: "a@b.io", Password: "weak", Name: "A", City: "Pune", Role: models.RoleHost})
	assert.ErrorIs(t, err, identity.ErrInvalidPassword)

	signUp(t, s, mailer, "dup@b.io")
	err = s.SignUp(ctx, &SignUpRequest{Email: "DUP@b.io", Password: "Secret123", Name: "A", City: "Pune", Role: models.RoleVolunteer})
	assert.ErrorIs(t, err, identity.ErrUsernameExists)
}

func TestAuthService_CreateAdmin(t *testing.T) {
	s, _, mailer := newAuthService(t)
	ctx := context.Background()

	u, err := s.CreateAdmin(ctx, &SignUpRequest{Email: "root@fudbi.io", Password: "Secret123", Name: "Root", City: "Pune", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.True(t, u.Verified)
	assert.Empty(t, mailer.sent)

	_, user, err := s.SignIn(ctx, "root@fudbi.io", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+919876543210", NormalizePhone("9876543210"))
	assert.Equal(t, "+14155550100", NormalizePhone(" +14155550100 "))
	assert.Equal(t, "", NormalizePhone(""))
}

func TestAuthService_SessionWithGarbageToken(t *testing.T) {
	s, _, _ := newAuthService(t)
	uc, err := s.Session(context.Background(), "not-a-jwt")
	require.NoError(t, err)
	assert.Nil(t, uc)
	assert.NoError(t, s.SignOut(context.Background(), "not-a-jwt"))
}

// fixedIDProvider hands out the same user id for every sign-up.
type fixedIDProvider struct {
	*identity.LocalProvider
	userID string
}

func (p *fixedIDProvider) SignUp(ctx context.Context, email, password string) (*identity.SignUpResult, error) {
	res, err := p.LocalProvider.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	res.UserID = p.userID
	return res, nil
}

func TestAuthService_SignUpProfileFailureRemovesIdentity(t *testing.T) {
	ctx := context.Background()
	rm := repomanager.NewMemoryRepositoryManager()
	repos := rm.Repositories()
	require.NoError(t, repos.Users.Create(ctx, &models.User{ID: "u-taken", Email: "old@x.io", City: "Pune", Role: models.RoleHost}))

	provider := &fixedIDProvider{LocalProvider: identity.NewLocalProvider(repos.Identities, time.Hour), userID: "u-taken"}
	s := NewAuthService(rm, provider, NewJWTSessionStore(repos.Sessions, "test-secret", time.Hour),
		&captureMailer{}, time.Hour, logging.Nop{})

	req := &SignUpRequest{Email: "asha@example.com", Password: "Secret123", Name: "Asha", City: "Pune", Role: models.RoleHost}
	err := s.SignUp(ctx, req)
	require.Error(t, err)
	assert.NotErrorIs(t, err, identity.ErrUsernameExists)

	_, err = repos.Identities.Get(ctx, "asha@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	provider.userID = "u-fresh"
	require.NoError(t, s.SignUp(ctx, req))
	u, err := repos.Users.Get(ctx, "u-fresh")
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", u.Email)
}
