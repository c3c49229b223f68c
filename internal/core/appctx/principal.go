package appctx

import (
	"context"
)

// Principal contains the authenticated caller of an API request.
// For bulkqr this is typically an operator account or a scanner device.
type Principal struct {
	Subject string
	Name    string
	Roles   []string
}

type principalKey struct{}

// WithPrincipal adds Principal to context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// GetPrincipal returns Principal from context.
func GetPrincipal(ctx context.Context) *Principal {
	if v, ok := ctx.Value(principalKey{}).(*Principal); ok {
		return v
	}
	return nil
}

// GetSubject returns the caller subject from context or empty string.
func GetSubject(ctx context.Context) string {
	if p := GetPrincipal(ctx); p != nil {
		return p.Subject
	}
	return ""
}

// HasRole checks if the caller has a specific role.
func HasRole(ctx context.Context, role string) bool {
	p := GetPrincipal(ctx)
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}
