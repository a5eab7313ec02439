package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dmitrijs2005/leasekeeper/internal/client/client"
	"github.com/dmitrijs2005/leasekeeper/internal/client/models"
	"github.com/dmitrijs2005/leasekeeper/internal/common"
	"github.com/dmitrijs2005/leasekeeper/internal/logging"
)

// LoginService signs a user in with email and password.
//
// Contract:
//   - Login: exchanges credentials for tokens through a public request and
//     hands them to the AuthController. Rejected credentials are reported in
//     the Result and never end an existing session.
type LoginService interface {
	Login(ctx context.Context, email, password string) models.Result
}

type loginResponse struct {
	Access       string               `json:"access"`
	Refresh      string               `json:"refresh"`
	User         json.RawMessage      `json:"user"`
	Subscription *models.Subscription `json:"subscription"`
}

type loginService struct {
	api    API
	auth   AuthController
	logger logging.Logger
}

func NewLoginService(api API, auth AuthController, logger logging.Logger) LoginService {
	return &loginService{api: api, auth: auth, logger: logger}
}

func (s *loginService) Login(ctx context.Context, email, password string) models.Result {
	in := map[string]string{"email": email, "password": password}

	var resp loginResponse
	if err := s.api.PostJSON(client.Public(ctx), common.RouteLogin, in, &resp); err != nil {
		s.logger.Info(ctx, "sign-in rejected", "email", email, "error", err)
		return models.Fail(errorMessage(err))
	}
	if resp.Access == "" {
		return models.Fail(ErrMissingToken.Error())
	}

	payload := models.LoginPayload{
		RefreshToken: resp.Refresh,
		User:         resp.User,
		Subscription: resp.Subscription,
	}
	if err := s.auth.Login(ctx, resp.Access, payload); err != nil {
		if errors.Is(err, ErrLoginVerification) {
			return models.Fail("could not verify the new session, try again")
		}
		return models.Fail(err.Error())
	}
	return models.Ok(resp.User)
}
