package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/akinalp/lectern/models"
	"github.com/akinalp/lectern/pkg"
	"github.com/akinalp/lectern/pkg/email"
	"github.com/akinalp/lectern/repository"
)

const (
	resetTokenExpiry  = 20 * time.Minute
	resetCooldown     = time.Minute
	resetTokenBytes   = 32
	refreshTokenBytes = 32
)

// DefaultPasswordCost is the bcrypt cost used when TokenPolicy leaves
// PasswordCost unset.
const DefaultPasswordCost = 12

type AuthService interface {
	// Register creates a student account and logs it in.
	Register(ctx context.Context, req *models.CreateUserRequest) (*AuthTokens, error)
	// CreateUser creates an account with any role without issuing tokens.
	CreateUser(ctx context.Context, req *models.CreateUserRequest, role models.Role) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*AuthTokens, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthTokens, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error)
	ChangePassword(ctx context.Context, userID string, req *models.ChangePasswordRequest) error
	// ForgotPassword emails a reset link when the address belongs to an
	// account. It reports success either way so addresses cannot be probed.
	ForgotPassword(ctx context.Context, req *models.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error
}

// AuthTokens is what a successful login, registration or refresh returns.
type AuthTokens struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"user"`
}

// AuthStores groups the repositories the auth service reads and writes.
type AuthStores struct {
	Users    repository.UserRepository
	Sessions repository.SessionRepository
	Resets   repository.PasswordResetRepository
}

var errBadCredentials = fmt.Errorf("%w: invalid username or password", pkg.ErrUnauthorized)

type authService struct {
	AuthStores
	access     *accessSigner
	refreshTTL time.Duration
	hashCost   int
	mailer     email.Sender
	log        logrus.FieldLogger
}

func NewAuthService(stores AuthStores, policy TokenPolicy, mailer email.Sender, logger logrus.FieldLogger) AuthService {
	cost := policy.PasswordCost
	if cost == 0 {
		cost = DefaultPasswordCost
	}
	return &authService{
		AuthStores: stores,
		hashCost:   cost,
		access:     newAccessSigner(policy.Secret, policy.AccessTTL),
		refreshTTL: policy.RefreshTTL,
		mailer:     mailer,
		log:        logger.WithField("component", "auth"),
	}
}

func (s *authService) Register(ctx context.Context, req *models.CreateUserRequest) (*AuthTokens, error) {
	user, err := s.CreateUser(ctx, req, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	return s.generateTokens(ctx, user)
}

func (s *authService) CreateUser(ctx context.Context, req *models.CreateUserRequest, role models.Role) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	if role != models.RoleInstructor && role != models.RoleStudent {
		return nil, fmt.Errorf("%w: unknown role %q", pkg.ErrBadRequest, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        optional(req.Email),
		DisplayName:  optional(req.DisplayName),
		Telephone:    optional(req.Telephone),
		PasswordHash: string(hash),
		Role:         role,
	}

	if err := s.Users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": role}).Info("user created")
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*AuthTokens, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.Users.GetByUsername(ctx, req.Username)
	switch {
	case errors.Is(err, pkg.ErrNotFound):
		return nil, errBadCredentials
	case err != nil:
		return nil, err
	case !passwordMatches(user.PasswordHash, req.Password):
		return nil, errBadCredentials
	}

	pruned, err := s.Sessions.PruneExpired(ctx, user.ID, time.Now())
	entry := s.log.WithField("user_id", user.ID)
	if err != nil {
		entry.WithError(err).Warn("failed to prune expired sessions")
	} else if pruned > 0 {
		entry.WithField("pruned", pruned).Debug("expired sessions pruned")
	}

	return s.generateTokens(ctx, user)
}

// RefreshToken rotates a session: the presented token is consumed and a
// new pair is issued.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	session, err := s.Sessions.Consume(ctx, hashToken(refreshToken))
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid refresh token", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	if session.Expired(time.Now()) {
		return nil, fmt.Errorf("%w: refresh token expired", pkg.ErrUnauthorized)
	}

	user, err := s.Users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	return s.generateTokens(ctx, user)
}

// Logout ends the session of refreshToken. Unknown tokens are not an error.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if _, err := s.Sessions.Consume(ctx, hashToken(refreshToken)); err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return err
	}
	return nil
}

func (s *authService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	return s.access.verify(tokenString)
}

func (s *authService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		user.DisplayName = optional(*req.DisplayName)
	}
	if req.Telephone != nil {
		user.Telephone = optional(*req.Telephone)
	}

	if err := s.Users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID string, req *models.ChangePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !passwordMatches(user.PasswordHash, req.CurrentPassword) {
		return fmt.Errorf("%w: current password is incorrect", pkg.ErrUnauthorized)
	}

	return s.setPassword(ctx, userID, req.NewPassword)
}

func (s *authService) ForgotPassword(ctx context.Context, req *models.ForgotPasswordRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	issued, found, err := s.Resets.LastIssuedAt(ctx, user.ID)
	if err != nil {
		return err
	}
	if found && time.Since(issued) < resetCooldown {
		s.log.WithField("user_id", user.ID).Debug("password reset requested during cooldown")
		return nil
	}

	token, err := opaqueToken(resetTokenBytes)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	if err := s.Resets.Replace(ctx, &models.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: hashToken(token),
		ExpiresAt: time.Now().Add(resetTokenExpiry),
	}); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordReset(ctx, *user.Email, token); err != nil {
		return err
	}

	s.log.WithField("user_id", user.ID).Info("password reset email sent")
	return nil
}

// ResetPassword consumes a reset token, sets the new password and ends
// every session of the account.
func (s *authService) ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	invalid := fmt.Errorf("%w: invalid or expired reset token", pkg.ErrBadRequest)

	stored, err := s.Resets.Consume(ctx, hashToken(req.Token))
	if errors.Is(err, pkg.ErrNotFound) {
		return invalid
	}
	if err != nil {
		return err
	}

	if stored.Expired(time.Now()) {
		return invalid
	}

	if err := s.setPassword(ctx, stored.UserID, req.NewPassword); err != nil {
		return err
	}

	if err := s.Sessions.RevokeAll(ctx, stored.UserID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	s.log.WithField("user_id", stored.UserID).Info("password reset")
	return nil
}

func (s *authService) setPassword(ctx context.Context, userID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}
	return s.Users.UpdatePassword(ctx, userID, string(hash))
}

// generateTokens signs an access token and opens a refresh session.
func (s *authService) generateTokens(ctx context.Context, user *models.User) (*AuthTokens, error) {
	now := time.Now()
	access, err := s.access.sign(user, now)
	if err != nil {
		return nil, err
	}

	refresh, err := opaqueToken(refreshTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	if err := s.Sessions.Create(ctx, &models.Session{
		UserID:    user.ID,
		TokenHash: hashToken(refresh),
		ExpiresAt: now.Add(s.refreshTTL),
	}); err != nil {
		return nil, err
	}

	out := &AuthTokens{AccessToken: access, RefreshToken: refresh, User: *user}
	out.User.PasswordHash = ""
	return out, nil
}

func passwordMatches(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
