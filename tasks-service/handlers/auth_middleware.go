package handlers

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/chepyr/go-task-planner/shared"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const userIDKey contextKey = "user_id"

/*
Verify the HS256 token issued by the auth service, then put the user id
from the "sub" claim into the request context
*/
func (h *Handler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.SendError(w, "Missing Authorization header", http.StatusUnauthorized)
			return
		}
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			shared.SendError(w, "Authorization header must use Bearer scheme", http.StatusUnauthorized)
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
			return []byte(os.Getenv("JWT_SECRET")), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			log.Printf("Rejected token: %v", err)
			shared.SendError(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			shared.SendError(w, "Invalid token claims", http.StatusUnauthorized)
			return
		}
		userID, err := uuid.Parse(sub)
		if err != nil {
			shared.SendError(w, "Invalid token claims", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}

func userIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
