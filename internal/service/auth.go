package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/partner-gateway-service/internal/middleware"
	"github.com/partner-gateway-service/internal/model"
	"github.com/partner-gateway-service/internal/store"
	"github.com/partner-gateway-service/internal/token"
)

// AuthService exchanges partner credentials for signed bearer token pairs.
type AuthService struct {
	store      store.PartnerStore
	codec      *token.Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(s store.PartnerStore, codec *token.Codec, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		store:      s,
		codec:      codec,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// TokenPair is the result of a successful login or refresh. A refresh always
// produces brand-new credentials; nothing is edited in place.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
}

// Uniform partner-facing failure for every credential problem. The specific
// reason goes to logs only.
func invalidCredentials() *Error {
	return NewUnauthorized("invalid_credentials", "Invalid credentials")
}

// Login authenticates a raw shared key and mints a fresh token pair.
func (s *AuthService) Login(ctx context.Context, rawKey string) (*TokenPair, error) {
	if rawKey == "" {
		return nil, invalidCredentials()
	}

	partner, err := s.store.GetPartnerByKeyHash(ctx, middleware.SHA256Hex(rawKey))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn().Msg("login failed: unknown partner key")
			return nil, invalidCredentials()
		}
		log.Error().Err(err).Msg("partner lookup failed during login")
		return nil, NewInternal("internal_error", "Failed to authenticate")
	}

	if partner.Status != model.PartnerActive {
		log.Warn().Str("partner", partner.Code).Str("status", string(partner.Status)).Msg("login failed: partner not active")
		return nil, invalidCredentials()
	}

	return s.mintPair(partner.Principal(model.AuthMethodSharedKey))
}

// Refresh verifies a refresh credential, re-checks the partner record and
// mints a new token pair.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string) (*TokenPair, error) {
	principal, authErr := s.codec.VerifyRefresh(rawRefresh)
	if authErr != nil {
		log.Warn().Str("code", authErr.Code).Msg("refresh credential rejected")
		return nil, invalidCredentials()
	}

	// The refresh credential outlives most partner state changes, so the
	// record is re-checked on every use.
	partner, err := s.store.GetPartnerByCode(ctx, principal.PartnerCode)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn().Str("partner", principal.PartnerCode).Msg("refresh failed: partner no longer exists")
			return nil, invalidCredentials()
		}
		log.Error().Err(err).Msg("partner lookup failed during refresh")
		return nil, NewInternal("internal_error", "Failed to refresh credentials")
	}
	if partner.Status != model.PartnerActive {
		log.Warn().Str("partner", partner.Code).Msg("refresh failed: partner not active")
		return nil, invalidCredentials()
	}

	return s.mintPair(partner.Principal(model.AuthMethodToken))
}

func (s *AuthService) mintPair(principal *model.Principal) (*TokenPair, error) {
	access, err := s.codec.IssueAccess(principal, s.accessTTL)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue access credential")
		return nil, NewInternal("internal_error", "Failed to issue credentials")
	}
	refresh, err := s.codec.IssueRefresh(principal, s.refreshTTL)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue refresh credential")
		return nil, NewInternal("internal_error", "Failed to issue credentials")
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}
