// Package token issues and verifies the signed bearer credentials partners
// authenticate with. Access and refresh credentials are signed with separate
// secrets so neither can be forged from a compromise of the other, and a
// refresh credential carries a use discriminator so it is never accepted
// where an access credential is expected.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/partner-gateway-service/internal/model"
)

const (
	// Issuer and Audience are fixed for every credential this gateway mints.
	Issuer   = "partner-gateway"
	Audience = "partner-api"

	refreshTokenUse = "refresh"
)

// Codec signs and verifies partner credentials. Stateless and safe for
// concurrent use.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
}

// NewCodec builds a codec from the two signing secrets. A missing or shared
// secret is a configuration error and belongs to startup, not the request
// path.
func NewCodec(accessSecret, refreshSecret string) (*Codec, error) {
	if accessSecret == "" {
		return nil, fmt.Errorf("access token secret is required")
	}
	if refreshSecret == "" {
		return nil, fmt.Errorf("refresh token secret is required")
	}
	if accessSecret == refreshSecret {
		return nil, fmt.Errorf("access and refresh token secrets must differ")
	}
	return &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
	}, nil
}

type partnerClaims struct {
	PartnerCode string   `json:"partner_code"`
	Name        string   `json:"name,omitempty"`
	Category    string   `json:"category,omitempty"`
	Roles       []string `json:"roles"`
	TokenUse    string   `json:"token_use,omitempty"`
	jwt.RegisteredClaims
}

// IssueAccess mints a new access credential for the principal.
func (c *Codec) IssueAccess(p *model.Principal, ttl time.Duration) (string, error) {
	return c.issue(p, ttl, "", c.accessSecret)
}

// IssueRefresh mints a new refresh credential for the principal. It carries
// the refresh discriminator and is signed with the refresh secret.
func (c *Codec) IssueRefresh(p *model.Principal, ttl time.Duration) (string, error) {
	return c.issue(p, ttl, refreshTokenUse, c.refreshSecret)
}

func (c *Codec) issue(p *model.Principal, ttl time.Duration, tokenUse string, secret []byte) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("credential ttl must be positive, got %s", ttl)
	}

	now := time.Now().UTC()
	claims := partnerClaims{
		PartnerCode: p.PartnerCode,
		Name:        p.Name,
		Category:    string(p.Category),
		Roles:       p.Roles,
		TokenUse:    tokenUse,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.PartnerID,
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Verify parses and validates an access credential, returning the principal
// it asserts. Refresh credentials are rejected with ErrWrongTokenUse.
func (c *Codec) Verify(raw string) (*model.Principal, *AuthError) {
	claims, authErr := c.parse(raw, c.accessSecret)
	if authErr != nil {
		// A refresh credential fails the access-secret signature before its
		// discriminator is ever seen; report the more precise reason.
		if authErr == ErrSignatureInvalid && c.isOtherUse(raw, c.refreshSecret, refreshTokenUse) {
			return nil, ErrWrongTokenUse
		}
		return nil, authErr
	}
	if claims.TokenUse != "" {
		return nil, ErrWrongTokenUse
	}
	return claimsPrincipal(claims), nil
}

// VerifyRefresh parses and validates a refresh credential. Access credentials
// are rejected with ErrWrongTokenUse.
func (c *Codec) VerifyRefresh(raw string) (*model.Principal, *AuthError) {
	claims, authErr := c.parse(raw, c.refreshSecret)
	if authErr != nil {
		if authErr == ErrSignatureInvalid && c.isOtherUse(raw, c.accessSecret, "") {
			return nil, ErrWrongTokenUse
		}
		return nil, authErr
	}
	if claims.TokenUse != refreshTokenUse {
		return nil, ErrWrongTokenUse
	}
	return claimsPrincipal(claims), nil
}

// isOtherUse reports whether raw verifies under the sibling secret with the
// given token_use claim, meaning a valid credential was presented for the
// wrong purpose.
func (c *Codec) isOtherUse(raw string, secret []byte, tokenUse string) bool {
	claims, authErr := c.parse(raw, secret)
	return authErr == nil && claims.TokenUse == tokenUse
}

func (c *Codec) parse(raw string, secret []byte) (*partnerClaims, *AuthError) {
	parsed, err := jwt.ParseWithClaims(raw, &partnerClaims{}, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, classifyParseError(err)
	}

	claims, ok := parsed.Claims.(*partnerClaims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}
	return claims, nil
}

func classifyParseError(err error) *AuthError {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignatureInvalid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer), errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ErrWrongAudience
	default:
		return ErrMalformed
	}
}

func claimsPrincipal(claims *partnerClaims) *model.Principal {
	return &model.Principal{
		PartnerID:   claims.Subject,
		PartnerCode: claims.PartnerCode,
		Name:        claims.Name,
		Category:    model.PartnerCategory(claims.Category),
		Roles:       claims.Roles,
		Method:      model.AuthMethodToken,
	}
}
