package handler

import (
	"encoding/json"
	"net/http"

	"github.com/partner-gateway-service/internal/service"
)

// TokenHandler exchanges a partner's shared key for a bearer token pair.
type TokenHandler struct {
	service *service.AuthService
}

func NewTokenHandler(svc *service.AuthService) *TokenHandler {
	return &TokenHandler{service: svc}
}

type tokenRequest struct {
	PartnerKey string `json:"partner_key"`
}

type tokenResponse struct {
	Success      bool   `json:"success"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if req.PartnerKey == "" {
		RespondError(w, http.StatusBadRequest, "invalid_request", "partner_key is required")
		return
	}

	pair, err := h.service.Login(r.Context(), req.PartnerKey)
	if err != nil {
		service.RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, tokenResponse{
		Success:      true,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
	})
}

// RefreshHandler mints a new token pair from a refresh credential.
type RefreshHandler struct {
	service *service.AuthService
}

func NewRefreshHandler(svc *service.AuthService) *RefreshHandler {
	return &RefreshHandler{service: svc}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if req.RefreshToken == "" {
		RespondError(w, http.StatusBadRequest, "invalid_request", "refresh_token is required")
		return
	}

	pair, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		service.RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, tokenResponse{
		Success:      true,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
	})
}
