package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/chepyr/go-task-planner/internal/ratelimit"
	"github.com/chepyr/go-task-planner/shared"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

var errMissingSecret = errors.New("JWT_SECRET environment variable is not set")

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		log.Printf("Invalid method for login: %s", r.Method)
		shared.SendError(w, "Use POST method for login", http.StatusMethodNotAllowed)
		return
	}

	clientIP := ratelimit.ClientIP(r)
	if h.RateLimiter != nil && !h.RateLimiter.Allow(clientIP) {
		log.Printf("Rate limit exceeded for IP: %s", clientIP)
		shared.SendError(w, "Too many login attempts. Please try again later.", http.StatusTooManyRequests)
		return
	}

	var input credentials
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Printf("Error decoding JSON: %v", err)
		shared.SendError(w, "Bad JSON", http.StatusBadRequest)
		return
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if !validateCredentials(w, input) {
		return
	}

	user, err := h.UserRepo.GetByEmail(r.Context(), input.Email)
	if err != nil {
		log.Printf("Error retrieving user by email %s: %v", input.Email, err)
		shared.SendError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		log.Printf("Invalid password for email: %s", input.Email)
		shared.SendError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	token, err := generateJWTToken(user.ID.String(), time.Now())
	if err != nil {
		log.Printf("Error generating token: %v", err)
		shared.SendError(w, "Cannot create token", http.StatusInternalServerError)
		return
	}

	shared.SendJSON(w, http.StatusOK, map[string]any{
		"user_email": input.Email,
		"user_id":    user.ID,
		"token":      token,
	})
	log.Printf("User logged in: %s", input.Email)
}

func generateJWTToken(sub string, now time.Time) (string, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", errMissingSecret
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": now.Add(tokenTTL).Unix(),
		"iat": now.Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return signed, nil
}
