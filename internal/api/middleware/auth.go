package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kedarnathdev/protectedData/internal/config"
	"github.com/kedarnathdev/protectedData/internal/utils"
)

type contextKey string

const AdminIDKey contextKey = "adminID"
const AdminUsernameKey contextKey = "adminUsername"

// AdminAuth gates the admin mutation surface. It expects an
// "Authorization: Bearer {token}" header; every failure mode (missing
// header, malformed token, bad signature, expiry) collapses to the same
// 401 so callers learn nothing about which check failed.
func AdminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenStr == "" {
			unauthorized(w)
			return
		}

		token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(config.Envs.JWTSecret), nil
		})

		if err != nil || !token.Valid {
			unauthorized(w)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			unauthorized(w)
			return
		}

		adminID, ok := claims["id"].(string)
		if !ok || adminID == "" {
			unauthorized(w)
			return
		}
		username, _ := claims["username"].(string)

		ctx := context.WithValue(r.Context(), AdminIDKey, adminID)
		ctx = context.WithValue(ctx, AdminUsernameKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter) {
	utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
		Success: false,
		Message: "Unauthorized",
		Error:   utils.ErrUnauthorized,
	})
}
