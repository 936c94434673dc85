package model

// AuthMethod records how a request proved its identity.
type AuthMethod string

const (
	AuthMethodToken     AuthMethod = "token"
	AuthMethodSharedKey AuthMethod = "shared_key"
)

// Roles granted to authenticated principals.
const (
	RolePartner = "partner"
	RoleAdmin   = "admin"
)

// Principal is the authenticated identity behind a request.
// It is built fresh per request and never persisted.
type Principal struct {
	PartnerID   string
	PartnerCode string
	Name        string
	Category    PartnerCategory
	Roles       []string
	Method      AuthMethod
}

// HasRole reports whether the principal carries the given role.
func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// CanAccessPartnerAPI reports whether the principal holds a role that grants
// access to the partner-facing API surface.
func (p *Principal) CanAccessPartnerAPI() bool {
	return p.HasRole(RolePartner) || p.HasRole(RoleAdmin)
}
