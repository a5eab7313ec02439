// Package services holds the business logic of the development API:
// sign-in, token refresh and verification, and password reset.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/common"
	"github.com/dmitrijs2005/leasekeeper/internal/logging"
	"github.com/dmitrijs2005/leasekeeper/internal/server/auth"
	"github.com/dmitrijs2005/leasekeeper/internal/server/config"
	"github.com/dmitrijs2005/leasekeeper/internal/server/models"
	"github.com/dmitrijs2005/leasekeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	otpDigits         = 6
	minPasswordLength = 8
)

// TokenPair is an access token plus a refresh token. RefreshToken is empty
// when a refresh did not rotate it.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult is everything a successful sign-in returns.
type LoginResult struct {
	Tokens *TokenPair
	User   *models.User
}

type UserService struct {
	repomanager                  repomanager.RepositoryManager
	mailer                       Mailer
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	otpValidityDuration          time.Duration
	rotateRefreshTokens          bool
	hashCost                     int
	now                          func() time.Time
}

func NewUserService(m repomanager.RepositoryManager, cfg *config.Config, mailer Mailer, logger logging.Logger) *UserService {
	return &UserService{
		repomanager:                  m,
		mailer:                       mailer,
		logger:                       logger,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidity,
		refreshTokenValidityDuration: cfg.RefreshTokenValidity,
		otpValidityDuration:          cfg.OTPValidity,
		rotateRefreshTokens:          cfg.RotateRefreshTokens,
		hashCost:                     bcrypt.DefaultCost,
		now:                          time.Now,
	}
}

// Register creates an account with the given password.
func (s *UserService) Register(ctx context.Context, email, name, password string, sub models.Subscription) (*models.User, error) {
	if email == "" || len(password) < minPasswordLength {
		return nil, common.ErrValidation
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Subscription: sub,
	}
	if err := s.repomanager.Users().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return user, nil
}

// Seed registers the demo account together with a few properties.
func (s *UserService) Seed(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.Register(ctx, email, "Demo Landlord", password, models.Subscription{Status: "active", IsActive: true})
	if err != nil {
		return nil, err
	}

	demo := []models.Property{
		{Name: "Birch House", Address: "12 Birch Lane", Units: 4},
		{Name: "Harbour View", Address: "3 Quay Street", Units: 12},
		{Name: "Oak Court", Address: "88 Oak Avenue", Units: 6},
	}
	for _, p := range demo {
		p.ID = uuid.NewString()
		p.OwnerID = user.ID
		if err := s.repomanager.Properties().Add(ctx, p); err != nil {
			return nil, fmt.Errorf("error seeding properties: %w", err)
		}
	}
	return user, nil
}

// Login checks the password and issues a fresh token pair. Unknown emails
// and wrong passwords both yield common.ErrUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repomanager.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, common.ErrInternal
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, common.ErrUnauthorized
	}

	pair, err := s.generateTokenPair(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Tokens: pair, User: user}, nil
}

// VerifyAccessToken returns the user id of a valid access token.
func (s *UserService) VerifyAccessToken(token string) (string, error) {
	return auth.GetUserIDFromToken(token, s.jwtSecret)
}

// RefreshToken exchanges a refresh token for a new access token. With
// rotation enabled the used token is revoked and a new one returned.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens()

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}

	if token.Expires.Before(s.now()) {
		if err := repo.Delete(ctx, refreshToken); err != nil {
			s.logger.Warn(ctx, "failed to drop expired refresh token", "error", err)
		}
		return nil, common.ErrRefreshTokenExpired
	}

	if !s.rotateRefreshTokens {
		access, err := s.generateAccessToken(token.UserID)
		if err != nil {
			return nil, common.ErrInternal
		}
		return &TokenPair{AccessToken: access}, nil
	}

	if err := repo.Delete(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("error deleting refresh token: %w", err)
	}
	return s.generateTokenPair(ctx, token.UserID)
}

// Me returns the account behind userID.
func (s *UserService) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.repomanager.Users().GetByID(ctx, userID)
}

// Properties lists the properties owned by userID.
func (s *UserService) Properties(ctx context.Context, userID string) ([]models.Property, error) {
	return s.repomanager.Properties().ListByOwner(ctx, userID)
}

// RequestOTP issues a password-reset code for email. Unknown emails succeed
// silently so the endpoint cannot be used to probe for accounts.
func (s *UserService) RequestOTP(ctx context.Context, email string) error {
	if _, err := s.repomanager.Users().GetByEmail(ctx, email); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.logger.Debug(ctx, "otp requested for unknown email", "email", email)
			return nil
		}
		return common.ErrInternal
	}

	code, err := common.MakeRandDigits(otpDigits)
	if err != nil {
		return common.ErrInternal
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.hashCost)
	if err != nil {
		return common.ErrInternal
	}

	otp := &models.OTP{Email: email, CodeHash: hash, Expires: s.now().Add(s.otpValidityDuration)}
	if err := s.repomanager.OTPs().Put(ctx, otp); err != nil {
		return fmt.Errorf("error storing otp: %w", err)
	}
	return s.mailer.SendOTP(ctx, email, code)
}

// VerifyOTP confirms a pending code. Missing, expired and wrong codes all
// yield common.ErrInvalidOTP.
func (s *UserService) VerifyOTP(ctx context.Context, email, code string) error {
	if _, err := s.checkOTP(ctx, email, code); err != nil {
		return err
	}
	return s.repomanager.OTPs().MarkVerified(ctx, email)
}

// ResetPassword sets a new password using a verified code. The code is
// consumed and every refresh token of the account is revoked.
func (s *UserService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	otp, err := s.checkOTP(ctx, email, code)
	if err != nil {
		return err
	}
	if !otp.Verified {
		return common.ErrInvalidOTP
	}
	if len(newPassword) < minPasswordLength {
		return common.ErrValidation
	}

	user, err := s.repomanager.Users().GetByEmail(ctx, email)
	if err != nil {
		return common.ErrInvalidOTP
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.hashCost)
	if err != nil {
		return common.ErrInternal
	}
	if err := s.repomanager.Users().UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}

	if err := s.repomanager.OTPs().Delete(ctx, email); err != nil {
		s.logger.Warn(ctx, "failed to drop used otp", "error", err)
	}
	if err := s.repomanager.RefreshTokens().DeleteByUser(ctx, user.ID); err != nil {
		s.logger.Warn(ctx, "failed to revoke refresh tokens", "user_id", user.ID, "error", err)
	}
	return nil
}

func (s *UserService) checkOTP(ctx context.Context, email, code string) (*models.OTP, error) {
	otp, err := s.repomanager.OTPs().Get(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidOTP
		}
		return nil, common.ErrInternal
	}

	if otp.Expires.Before(s.now()) {
		_ = s.repomanager.OTPs().Delete(ctx, email)
		return nil, common.ErrInvalidOTP
	}
	if bcrypt.CompareHashAndPassword(otp.CodeHash, []byte(code)) != nil {
		return nil, common.ErrInvalidOTP
	}
	return otp, nil
}

func (s *UserService) generateAccessToken(userID string) (string, error) {
	return auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *UserService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *UserService) generateTokenPair(ctx context.Context, userID string) (*TokenPair, error) {
	accessToken, err := s.generateAccessToken(userID)
	if err != nil {
		return nil, common.ErrInternal
	}

	refreshToken, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrInternal
	}

	if err := s.repomanager.RefreshTokens().Create(ctx, userID, refreshToken, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrInternal
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
