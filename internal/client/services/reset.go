package services

import (
	"context"

	"github.com/dmitrijs2005/leasekeeper/internal/client/client"
	"github.com/dmitrijs2005/leasekeeper/internal/client/models"
	"github.com/dmitrijs2005/leasekeeper/internal/common"
	"github.com/dmitrijs2005/leasekeeper/internal/logging"
)

// PasswordResetService drives the one-time-code password reset. Every call
// is public.
type PasswordResetService interface {
	RequestOTP(ctx context.Context, email string) models.Result
	VerifyOTP(ctx context.Context, email, otp string) models.Result
	ResetPassword(ctx context.Context, email, otp, newPassword string) models.Result
}

type passwordResetService struct {
	api    API
	logger logging.Logger
}

func NewPasswordResetService(api API, logger logging.Logger) PasswordResetService {
	return &passwordResetService{api: api, logger: logger}
}

func (s *passwordResetService) post(ctx context.Context, route string, in map[string]string) models.Result {
	var out map[string]any
	if err := s.api.PostJSON(client.Public(ctx), route, in, &out); err != nil {
		s.logger.Info(ctx, "password reset step failed", "route", route, "error", err)
		return models.Fail(errorMessage(err))
	}
	return models.Ok(out)
}

func (s *passwordResetService) RequestOTP(ctx context.Context, email string) models.Result {
	return s.post(ctx, common.RouteGetOTP, map[string]string{"email": email})
}

func (s *passwordResetService) VerifyOTP(ctx context.Context, email, otp string) models.Result {
	return s.post(ctx, common.RouteVerifyOTP, map[string]string{"email": email, "otp": otp})
}

func (s *passwordResetService) ResetPassword(ctx context.Context, email, otp, newPassword string) models.Result {
	return s.post(ctx, common.RouteResetPassword, map[string]string{
		"email":        email,
		"otp":          otp,
		"new_password": newPassword,
	})
}
