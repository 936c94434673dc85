package token

// AuthError classifies a credential verification failure. The Code is stable
// and intended for internal logs; partner-facing responses stay generic.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Code + ": " + e.Message
}

var (
	// ErrMalformed covers tokens that fail to parse at all.
	ErrMalformed = &AuthError{Code: "token_malformed", Message: "credential could not be parsed"}
	// ErrExpired covers structurally valid tokens past their expiry.
	ErrExpired = &AuthError{Code: "token_expired", Message: "credential has expired"}
	// ErrSignatureInvalid covers tokens whose signature does not verify
	// against the current signing key.
	ErrSignatureInvalid = &AuthError{Code: "token_signature_invalid", Message: "credential signature mismatch"}
	// ErrWrongAudience covers tokens minted for a different issuer or audience.
	ErrWrongAudience = &AuthError{Code: "token_wrong_audience", Message: "credential issuer or audience mismatch"}
	// ErrWrongTokenUse covers refresh tokens presented as access tokens and
	// vice versa.
	ErrWrongTokenUse = &AuthError{Code: "token_wrong_use", Message: "credential presented for the wrong purpose"}
)
