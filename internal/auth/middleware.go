package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/joao-fontenele/marketplace/internal/domain"
	"github.com/joao-fontenele/marketplace/internal/httpx"
)

// Claims carries the user id in the standard subject claim and the role in
// a custom one.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	secret []byte
	logger *slog.Logger
}

func NewAuthenticator(secret string, logger *slog.Logger) *Authenticator {
	return &Authenticator{secret: []byte(secret), logger: logger}
}

// Issue signs a token for p. It exists for tests and local tooling; the
// marketplace itself never issues credentials.
func (a *Authenticator) Issue(p domain.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authenticator) Parse(tokenString string) (domain.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return domain.Principal{}, err
	}
	if !token.Valid {
		return domain.Principal{}, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return domain.Principal{}, errors.New("token has no subject")
	}

	role := domain.Role(strings.ToUpper(string(claims.Role)))
	switch role {
	case domain.RoleBuyer, domain.RoleSeller, domain.RoleAdmin:
	default:
		return domain.Principal{}, fmt.Errorf("unknown role %q", claims.Role)
	}

	return domain.Principal{UserID: claims.Subject, Role: role}, nil
}

// Authenticate rejects requests without a valid bearer token and stores the
// principal in the request context.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			httpx.WriteError(w, a.logger, http.StatusUnauthorized, "missing bearer token")
			return
		}

		principal, err := a.Parse(tokenString)
		if err != nil {
			a.logger.DebugContext(r.Context(), "rejected bearer token", "error", err)
			httpx.WriteError(w, a.logger, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// RequireRole allows only principals holding role. It must run after
// Authenticate.
func (a *Authenticator) RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFrom(r.Context())
			if !ok {
				httpx.WriteError(w, a.logger, http.StatusUnauthorized, "missing bearer token")
				return
			}
			if !principal.HasRole(role) {
				httpx.WriteError(w, a.logger, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
