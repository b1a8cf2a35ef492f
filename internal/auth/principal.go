// Package auth resolves the calling principal from a bearer token and makes
// it available to handlers through the request context.
package auth

import (
	"context"

	"github.com/joao-fontenele/marketplace/internal/domain"
)

type principalKey struct{}

func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}
