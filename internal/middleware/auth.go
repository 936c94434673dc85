package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/partner-gateway-service/internal/metrics"
	"github.com/partner-gateway-service/internal/model"
	"github.com/partner-gateway-service/internal/store"
	"github.com/partner-gateway-service/internal/token"
)

// SharedKeyHeader carries the partner's shared secret key when no bearer
// token is presented.
const SharedKeyHeader = "X-Partner-Key"

type contextKey string

const principalContextKey contextKey = "principal"

// GetPrincipal extracts the authenticated principal from the request context.
func GetPrincipal(ctx context.Context) *model.Principal {
	p, _ := ctx.Value(principalContextKey).(*model.Principal)
	return p
}

// AuthError is a typed authentication failure. Code is for internal logs;
// every failure maps to the same partner-facing 401 body so responses do not
// reveal which check failed.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Code + ": " + e.Message
}

var (
	errMissingCredentials = &AuthError{Code: "missing_credentials", Message: "no bearer token or shared key presented"}
	errInvalidSharedKey   = &AuthError{Code: "invalid_shared_key", Message: "shared key unknown or partner not active"}
	errRoleMismatch       = &AuthError{Code: "role_mismatch", Message: "credential lacks a partner-facing role"}
)

// Authenticator resolves a request to a principal: bearer-token verification
// first, shared-key lookup as the fallback. It never mutates shared state;
// the shared-key lookup is its only external call.
type Authenticator struct {
	codec    *token.Codec
	partners store.PartnerStore
}

func NewAuthenticator(codec *token.Codec, partners store.PartnerStore) *Authenticator {
	return &Authenticator{codec: codec, partners: partners}
}

// Authenticate inspects the request's credentials and returns the principal
// they prove, or a typed failure. Every branch is terminal.
func (a *Authenticator) Authenticate(r *http.Request) (*model.Principal, *AuthError) {
	if bearer := extractBearerToken(r); bearer != "" {
		principal, tokErr := a.codec.Verify(bearer)
		if tokErr != nil {
			return nil, &AuthError{Code: tokErr.Code, Message: tokErr.Message}
		}
		if !principal.CanAccessPartnerAPI() {
			return nil, errRoleMismatch
		}
		return principal, nil
	}

	if rawKey := r.Header.Get(SharedKeyHeader); rawKey != "" {
		partner, err := a.partners.GetPartnerByKeyHash(r.Context(), SHA256Hex(rawKey))
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				log.Error().Err(err).Msg("partner lookup failed during authentication")
			}
			return nil, errInvalidSharedKey
		}
		if partner.Status != model.PartnerActive {
			return nil, errInvalidSharedKey
		}
		return partner.Principal(model.AuthMethodSharedKey), nil
	}

	return nil, errMissingCredentials
}

// RequireAuth returns middleware that authenticates requests and injects the
// principal into the request context. Failures get a uniform 401 body; the
// specific code goes to logs only.
func RequireAuth(a *Authenticator, limiter *AuthAttemptLimiter, collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attemptKey := clientIPKey(r, "auth")
			if limiter != nil && !limiter.allow(attemptKey) {
				respondError(w, http.StatusTooManyRequests, "rate_limited", "Too many authentication failures")
				return
			}

			principal, authErr := a.Authenticate(r)
			if authErr != nil {
				if limiter != nil {
					limiter.registerFailure(attemptKey)
				}
				if collector != nil {
					collector.RecordAuthOutcome(authMethod(r), authErr.Code)
				}
				log.Warn().
					Str("code", authErr.Code).
					Str("path", r.URL.Path).
					Msg("request authentication failed")
				respondError(w, http.StatusUnauthorized, "unauthorized", "Invalid or missing credentials")
				return
			}

			if limiter != nil {
				limiter.registerSuccess(attemptKey)
			}
			if collector != nil {
				collector.RecordAuthOutcome(string(principal.Method), "ok")
			}
			ctx := context.WithValue(r.Context(), principalContextKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authMethod labels the credential kind a failed request attempted, for
// metrics only.
func authMethod(r *http.Request) string {
	if extractBearerToken(r) != "" {
		return string(model.AuthMethodToken)
	}
	if r.Header.Get(SharedKeyHeader) != "" {
		return string(model.AuthMethodSharedKey)
	}
	return "none"
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(auth, "Bearer ")
}

// SHA256Hex returns the hex-encoded SHA-256 hash of the input.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}
