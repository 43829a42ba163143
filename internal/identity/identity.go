package identity

import (
	"context"

	"github.com/taskdeck/taskdeck/pkg/cerr"
)

// Claims is the verified claim set of the caller, as produced by the
// token middleware. Handlers never see the raw token.
type Claims map[string]any

type claimsKey struct{}

func ContextWithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(Claims)
	return claims, ok
}

// ownerPrefix namespaces the partition key so the same table could hold
// other entity types later.
const ownerPrefix = "USER#"

// Resolve returns the owner identifier of the authenticated caller,
// derived from the subject claim. There is no fallback identity: a missing
// or malformed claim set is a hard stop.
func Resolve(ctx context.Context) (string, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return "", cerr.NewError(cerr.Unauthenticated, "unauthorized: missing or invalid token", nil)
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", cerr.NewError(cerr.Unauthenticated, "unauthorized: missing or invalid token", nil)
	}
	return ownerPrefix + sub, nil
}
