package auth

import "context"

type contextKey string

const authContextKey contextKey = "metadesc_auth"

// AuthInfo holds authenticated identity information extracted from an API key.
type AuthInfo struct {
	KeyID            string
	OrganizationID   string
	TeamID           string
	Name             string
	AllowedProviders []string
}

// AllowsProvider reports whether the authenticated key may use the named
// provider. An empty grant list allows all providers.
func (a *AuthInfo) AllowsProvider(name string) bool {
	if len(a.AllowedProviders) == 0 {
		return true
	}
	for _, p := range a.AllowedProviders {
		if p == name {
			return true
		}
	}
	return false
}

func ContextWithAuth(ctx context.Context, info *AuthInfo) context.Context {
	return context.WithValue(ctx, authContextKey, info)
}

func AuthFromContext(ctx context.Context) (*AuthInfo, bool) {
	info, ok := ctx.Value(authContextKey).(*AuthInfo)
	return info, ok
}
