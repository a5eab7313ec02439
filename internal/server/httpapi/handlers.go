package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/leasekeeper/internal/common"
	"github.com/dmitrijs2005/leasekeeper/internal/logging"
	"github.com/dmitrijs2005/leasekeeper/internal/server/models"
	"github.com/dmitrijs2005/leasekeeper/internal/server/services"
)

const maxBodyBytes = 1 << 20

// Service is the business logic behind the handlers.
type Service interface {
	TokenVerifier
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	Me(ctx context.Context, userID string) (*models.User, error)
	Properties(ctx context.Context, userID string) ([]models.Property, error)
}

type Handler struct {
	service Service
	logger  logging.Logger
}

func NewHandler(service Service, logger logging.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type loginResponse struct {
	Access       string              `json:"access"`
	Refresh      string              `json:"refresh"`
	User         userResponse        `json:"user"`
	Subscription models.Subscription `json:"subscription"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

type meResponse struct {
	userResponse
	Subscription models.Subscription `json:"subscription"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		respondWithError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	res, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			respondWithError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.internalError(w, r, "login failed", err)
		return
	}

	respondWithJSON(w, http.StatusOK, loginResponse{
		Access:       res.Tokens.AccessToken,
		Refresh:      res.Tokens.RefreshToken,
		User:         toUserResponse(res.User),
		Subscription: res.User.Subscription,
	})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if _, err := h.service.VerifyAccessToken(req.Token); err != nil {
		respondWithError(w, http.StatusUnauthorized, "token is invalid or expired")
		return
	}
	respondWithJSON(w, http.StatusOK, struct{}{})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Refresh == "" {
		respondWithError(w, http.StatusBadRequest, "refresh token is required")
		return
	}

	pair, err := h.service.RefreshToken(r.Context(), req.Refresh)
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) || errors.Is(err, common.ErrRefreshTokenExpired) {
			respondWithError(w, http.StatusUnauthorized, "token is invalid or expired")
			return
		}
		h.internalError(w, r, "refresh failed", err)
		return
	}

	respondWithJSON(w, http.StatusOK, refreshResponse{Access: pair.AccessToken, Refresh: pair.RefreshToken})
}

func (h *Handler) handleGetOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" {
		respondWithError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.service.RequestOTP(r.Context(), req.Email); err != nil {
		h.internalError(w, r, "otp request failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, detailResponse{Detail: "if the account exists, a code has been sent"})
}

func (h *Handler) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.service.VerifyOTP(r.Context(), req.Email, req.OTP); err != nil {
		h.otpError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, detailResponse{Detail: "code verified"})
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		OTP         string `json:"otp"`
		NewPassword string `json:"new_password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		h.otpError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, detailResponse{Detail: "password updated"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserFromContext(r.Context())

	user, err := h.service.Me(r.Context(), userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			respondWithError(w, http.StatusUnauthorized, "user not found")
			return
		}
		h.internalError(w, r, "profile lookup failed", err)
		return
	}

	respondWithJSON(w, http.StatusOK, meResponse{userResponse: toUserResponse(user), Subscription: user.Subscription})
}

func (h *Handler) handleProperties(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserFromContext(r.Context())

	props, err := h.service.Properties(r.Context(), userID)
	if err != nil {
		h.internalError(w, r, "property listing failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, props)
}

func (h *Handler) otpError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidOTP):
		respondWithError(w, http.StatusBadRequest, "invalid or expired code")
	case errors.Is(err, common.ErrValidation):
		respondWithError(w, http.StatusBadRequest, "password is too short")
	default:
		h.internalError(w, r, "password reset failed", err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(r.Context(), msg, "error", err)
	respondWithError(w, http.StatusInternalServerError, "internal server error")
}

// decodeBody reads a JSON request body into v, answering 400 itself when
// the body is not valid JSON.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func respondWithError(w http.ResponseWriter, code int, detail string) {
	respondWithJSON(w, code, detailResponse{Detail: detail})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
