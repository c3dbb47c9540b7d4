package httputil

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/orfevre/attendance-backend/pkg/errors"
	"github.com/orfevre/attendance-backend/pkg/logger"
	"github.com/orfevre/attendance-backend/pkg/permissions"
)

// RequireJWT verifies HS256 bearer tokens issued by the ERP and puts the
// subject, role and permissions into the request context. An empty secret
// disables the check.
func RequireJWT(secret, issuer string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				Error(w, errors.Unauthorized("missing authorization header"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				Error(w, errors.Unauthorized("invalid authorization header format"))
				return
			}

			opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
			if issuer != "" {
				opts = append(opts, jwt.WithIssuer(issuer))
			}

			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(secret), nil
			}, opts...)
			if err != nil {
				log.Debug().Err(err).Msg("token validation failed")
				if strings.Contains(err.Error(), "expired") {
					Error(w, errors.Unauthorized("token expired"))
				} else {
					Error(w, errors.Unauthorized("invalid token"))
				}
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok || !token.Valid {
				Error(w, errors.Unauthorized("invalid token"))
				return
			}

			userID, _ := claims["sub"].(string)
			if userID == "" {
				Error(w, errors.Unauthorized("token has no subject"))
				return
			}
			role, _ := claims["role"].(string)

			var perms []string
			if raw, ok := claims["permissions"].([]interface{}); ok {
				perms = make([]string, 0, len(raw))
				for _, p := range raw {
					if s, ok := p.(string); ok {
						perms = append(perms, s)
					}
				}
			}

			ctx := WithUserContext(r.Context(), userID, role)
			ctx = WithPermissions(ctx, perms)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission rejects authenticated requests whose token lacks the
// permission. Unauthenticated requests pass, so it only bites behind an
// enabled RequireJWT.
func RequirePermission(required string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsAuthenticated(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}
			if !permissions.HasPermission(GetUserPermissions(r.Context()), required) {
				Error(w, errors.Forbidden("missing permission "+required))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
