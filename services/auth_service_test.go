package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/akinalp/lectern/models"
	"github.com/akinalp/lectern/pkg"
)

func TestRegisterCreatesLoggedInStudent(t *testing.T) {
	e := newEnv(t)

	tokens, err := e.auth.Register(e.ctx, &models.CreateUserRequest{
		Username: "ada",
		Password: "password123",
		Email:    "ada@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, tokens.User.Role)
	assert.Empty(t, tokens.User.PasswordHash)
	assert.NotEmpty(t, tokens.RefreshToken)

	claims, err := e.auth.ValidateAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, tokens.User.ID, claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)

	_, err = e.auth.Register(e.ctx, &models.CreateUserRequest{Username: "ada", Password: "password123"})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)

	_, err = e.auth.Register(e.ctx, &models.CreateUserRequest{Username: "x", Password: "short"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	e := newEnv(t)
	_, err := e.auth.CreateUser(e.ctx, &models.CreateUserRequest{Username: "root", Password: "password123"}, "admin")
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	e.user("grace", models.RoleInstructor, "")

	tokens, err := e.auth.Login(e.ctx, &models.LoginRequest{Username: "grace", Password: "password123"})
	require.NoError(t, err)
	claims, err := e.auth.ValidateAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleInstructor, claims.Role)

	_, err = e.auth.Login(e.ctx, &models.LoginRequest{Username: "grace", Password: "wrong-password"})
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	_, err = e.auth.Login(e.ctx, &models.LoginRequest{Username: "nobody", Password: "password123"})
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
}

func TestValidateAccessTokenRejectsForeignSecret(t *testing.T) {
	e := newEnv(t)
	e.user("grace", models.RoleStudent, "")
	tokens, err := e.auth.Login(e.ctx, &models.LoginRequest{Username: "grace", Password: "password123"})
	require.NoError(t, err)

	other := NewAuthService(e.stores(), testPolicy("another-secret"), e.mailer, nullLogger())
	_, err = other.ValidateAccessToken(tokens.AccessToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	_, err = e.auth.ValidateAccessToken("garbage")
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
}

func TestRefreshRotatesSession(t *testing.T) {
	e := newEnv(t)
	e.user("grace", models.RoleStudent, "")
	first, err := e.auth.Login(e.ctx, &models.LoginRequest{Username: "grace", Password: "password123"})
	require.NoError(t, err)

	second, err := e.auth.RefreshToken(e.ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = e.auth.RefreshToken(e.ctx, first.RefreshToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized, "a refresh token is single use")

	require.NoError(t, e.auth.Logout(e.ctx, second.RefreshToken))
	_, err = e.auth.RefreshToken(e.ctx, second.RefreshToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	assert.NoError(t, e.auth.Logout(e.ctx, "unknown"))
}

func TestRefreshRejectsExpiredSession(t *testing.T) {
	e := newEnv(t)
	u := e.user("grace", models.RoleStudent, "")

	session := &models.Session{UserID: u.ID, TokenHash: hashToken("stale"), ExpiresAt: time.Now().Add(-time.Hour)}
	require.NoError(t, e.sessions.Create(e.ctx, session))

	_, err := e.auth.RefreshToken(e.ctx, "stale")
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
}

func TestProfileAndPassword(t *testing.T) {
	e := newEnv(t)
	u := e.user("grace", models.RoleStudent, "")

	name := "Grace Hopper"
	updated, err := e.auth.UpdateProfile(e.ctx, u.ID, &models.UpdateProfileRequest{DisplayName: &name})
	require.NoError(t, err)
	require.NotNil(t, updated.DisplayName)
	assert.Equal(t, name, *updated.DisplayName)

	err = e.auth.ChangePassword(e.ctx, u.ID, &models.ChangePasswordRequest{
		CurrentPassword: "wrong-password", NewPassword: "newpassword1",
	})
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	require.NoError(t, e.auth.ChangePassword(e.ctx, u.ID, &models.ChangePasswordRequest{
		CurrentPassword: "password123", NewPassword: "newpassword1",
	}))
	_, err = e.auth.Login(e.ctx, &models.LoginRequest{Username: "grace", Password: "newpassword1"})
	assert.NoError(t, err)
}

func TestForgotAndResetPassword(t *testing.T) {
	e := newEnv(t)
	u := e.user("grace", models.RoleStudent, "grace@example.com")
	tokens, err := e.auth.Login(e.ctx, &models.LoginRequest{Username: "grace", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, e.auth.ForgotPassword(e.ctx, &models.ForgotPasswordRequest{Email: "nobody@example.com"}))
	assert.Empty(t, e.mailer.resets)

	require.NoError(t, e.auth.ForgotPassword(e.ctx, &models.ForgotPasswordRequest{Email: "GRACE@example.com"}))
	require.Len(t, e.mailer.resets, 1)
	assert.Equal(t, "grace@example.com", e.mailer.resets[0].to)
	token := e.mailer.resets[0].token
	assert.Len(t, token, 64)

	require.NoError(t, e.auth.ForgotPassword(e.ctx, &models.ForgotPasswordRequest{Email: "grace@example.com"}))
	assert.Len(t, e.mailer.resets, 1, "second request inside the cooldown sends nothing")

	_, found, err := e.resets.LastIssuedAt(e.ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, found)
	_, err = e.resets.Consume(e.ctx, token)
	assert.ErrorIs(t, err, pkg.ErrNotFound, "only the hash is stored")

	require.NoError(t, e.auth.ResetPassword(e.ctx, &models.ResetPasswordRequest{Token: token, NewPassword: "brandnew123"}))

	_, err = e.auth.Login(e.ctx, &models.LoginRequest{Username: "grace", Password: "brandnew123"})
	assert.NoError(t, err)
	_, err = e.auth.RefreshToken(e.ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized, "reset ends earlier sessions")

	err = e.auth.ResetPassword(e.ctx, &models.ResetPasswordRequest{Token: token, NewPassword: "another123"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest, "tokens are single use")
}

func TestResetPasswordRejectsExpiredToken(t *testing.T) {
	e := newEnv(t)
	u := e.user("grace", models.RoleStudent, "grace@example.com")

	token := strings.Repeat("ab", 32)
	require.NoError(t, e.resets.Replace(e.ctx, &models.PasswordResetToken{
		UserID:    u.ID,
		TokenHash: hashToken(token),
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	err := e.auth.ResetPassword(e.ctx, &models.ResetPasswordRequest{Token: token, NewPassword: "brandnew123"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestPasswordCostFollowsPolicy(t *testing.T) {
	e := newEnv(t)
	u := e.user("ada", models.RoleStudent, "")
	stored, err := e.users.GetByID(e.ctx, u.ID)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	policy := testPolicy("test-secret")
	policy.PasswordCost = 0
	defaulted := NewAuthService(e.stores(), policy, e.mailer, nullLogger())
	u2, err := defaulted.CreateUser(e.ctx, &models.CreateUserRequest{Username: "bo", Password: "password123"}, models.RoleStudent)
	require.NoError(t, err)
	stored, err = e.users.GetByID(e.ctx, u2.ID)
	require.NoError(t, err)
	cost, err = bcrypt.Cost([]byte(stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, DefaultPasswordCost, cost)
}
