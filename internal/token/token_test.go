package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/partner-gateway-service/internal/model"
)

const (
	testAccessSecret  = "access-secret-0123456789abcdef"
	testRefreshSecret = "refresh-secret-0123456789abcdef"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	codec, err := NewCodec(testAccessSecret, testRefreshSecret)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return codec
}

func testPrincipal() *model.Principal {
	return &model.Principal{
		PartnerID:   "11111111-2222-3333-4444-555555555555",
		PartnerCode: "acme-insurance",
		Name:        "Acme Insurance",
		Category:    model.CategoryInsurance,
		Roles:       []string{model.RolePartner},
		Method:      model.AuthMethodSharedKey,
	}
}

func TestCodecConstruction(t *testing.T) {
	t.Run("rejects missing access secret", func(t *testing.T) {
		if _, err := NewCodec("", testRefreshSecret); err == nil {
			t.Fatal("expected error for missing access secret")
		}
	})

	t.Run("rejects missing refresh secret", func(t *testing.T) {
		if _, err := NewCodec(testAccessSecret, ""); err == nil {
			t.Fatal("expected error for missing refresh secret")
		}
	})

	t.Run("rejects shared secret", func(t *testing.T) {
		if _, err := NewCodec(testAccessSecret, testAccessSecret); err == nil {
			t.Fatal("expected error for identical secrets")
		}
	})
}

func TestIssueAndVerifyAccess(t *testing.T) {
	codec := newTestCodec(t)
	principal := testPrincipal()

	raw, err := codec.IssueAccess(principal, time.Minute)
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}

	verified, authErr := codec.Verify(raw)
	if authErr != nil {
		t.Fatalf("verify access: %v", authErr)
	}
	if verified.PartnerID != principal.PartnerID {
		t.Fatalf("unexpected subject: got %q want %q", verified.PartnerID, principal.PartnerID)
	}
	if verified.PartnerCode != principal.PartnerCode {
		t.Fatalf("unexpected partner code: got %q", verified.PartnerCode)
	}
	if len(verified.Roles) != 1 || verified.Roles[0] != model.RolePartner {
		t.Fatalf("unexpected roles: %v", verified.Roles)
	}
	if verified.Method != model.AuthMethodToken {
		t.Fatalf("unexpected auth method: %v", verified.Method)
	}
}

func TestIssueRejectsNonPositiveTTL(t *testing.T) {
	codec := newTestCodec(t)
	if _, err := codec.IssueAccess(testPrincipal(), 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
	if _, err := codec.IssueAccess(testPrincipal(), -time.Minute); err == nil {
		t.Fatal("expected error for negative ttl")
	}
}

func TestRefreshDiscriminator(t *testing.T) {
	codec := newTestCodec(t)
	principal := testPrincipal()

	refresh, err := codec.IssueRefresh(principal, time.Hour)
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	access, err := codec.IssueAccess(principal, time.Minute)
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}

	t.Run("refresh token rejected as access token", func(t *testing.T) {
		if _, authErr := codec.Verify(refresh); authErr != ErrWrongTokenUse {
			t.Fatalf("expected ErrWrongTokenUse, got %v", authErr)
		}
	})

	t.Run("access token rejected as refresh token", func(t *testing.T) {
		if _, authErr := codec.VerifyRefresh(access); authErr != ErrWrongTokenUse {
			t.Fatalf("expected ErrWrongTokenUse, got %v", authErr)
		}
	})

	t.Run("refresh token verifies as refresh", func(t *testing.T) {
		verified, authErr := codec.VerifyRefresh(refresh)
		if authErr != nil {
			t.Fatalf("verify refresh: %v", authErr)
		}
		if verified.PartnerID != principal.PartnerID {
			t.Fatalf("unexpected subject: %q", verified.PartnerID)
		}
	})
}

func signTestToken(t *testing.T, secret string, mutate func(*jwt.RegisteredClaims)) string {
	t.Helper()

	now := time.Now().UTC()
	reg := jwt.RegisteredClaims{
		Subject:   "11111111-2222-3333-4444-555555555555",
		Issuer:    Issuer,
		Audience:  jwt.ClaimStrings{Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		ID:        "test-jti",
	}
	if mutate != nil {
		mutate(&reg)
	}
	claims := partnerClaims{
		PartnerCode:      "acme-insurance",
		Roles:            []string{model.RolePartner},
		RegisteredClaims: reg,
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign test token: %v", err)
	}
	return raw
}

func TestVerifyFailures(t *testing.T) {
	codec := newTestCodec(t)

	t.Run("expired", func(t *testing.T) {
		raw := signTestToken(t, testAccessSecret, func(reg *jwt.RegisteredClaims) {
			reg.IssuedAt = jwt.NewNumericDate(time.Now().Add(-2 * time.Minute))
			reg.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Second))
		})
		if _, authErr := codec.Verify(raw); authErr != ErrExpired {
			t.Fatalf("expected ErrExpired, got %v", authErr)
		}
	})

	t.Run("wrong audience", func(t *testing.T) {
		raw := signTestToken(t, testAccessSecret, func(reg *jwt.RegisteredClaims) {
			reg.Audience = jwt.ClaimStrings{"someone-else"}
		})
		if _, authErr := codec.Verify(raw); authErr != ErrWrongAudience {
			t.Fatalf("expected ErrWrongAudience, got %v", authErr)
		}
	})

	t.Run("wrong issuer", func(t *testing.T) {
		raw := signTestToken(t, testAccessSecret, func(reg *jwt.RegisteredClaims) {
			reg.Issuer = "someone-else"
		})
		if _, authErr := codec.Verify(raw); authErr != ErrWrongAudience {
			t.Fatalf("expected ErrWrongAudience, got %v", authErr)
		}
	})

	t.Run("foreign signature", func(t *testing.T) {
		raw := signTestToken(t, "a-completely-different-secret", nil)
		if _, authErr := codec.Verify(raw); authErr != ErrSignatureInvalid {
			t.Fatalf("expected ErrSignatureInvalid, got %v", authErr)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		if _, authErr := codec.Verify("not-a-token"); authErr != ErrMalformed {
			t.Fatalf("expected ErrMalformed, got %v", authErr)
		}
	})
}
