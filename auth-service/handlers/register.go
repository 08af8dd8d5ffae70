package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/chepyr/go-task-planner/internal/db"
	"github.com/chepyr/go-task-planner/internal/ratelimit"
	"github.com/chepyr/go-task-planner/shared"
	"github.com/chepyr/go-task-planner/shared/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		log.Printf("Invalid method for register: %s", r.Method)
		shared.SendError(w, "Use POST method", http.StatusMethodNotAllowed)
		return
	}

	clientIP := ratelimit.ClientIP(r)
	if h.RateLimiter != nil && !h.RateLimiter.Allow(clientIP) {
		log.Printf("Rate limit exceeded for IP: %s", clientIP)
		shared.SendError(w, "Too many register attempts. Please try again later.", http.StatusTooManyRequests)
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

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		shared.SendError(w, "Cannot hash password", http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Email:        input.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.UserRepo.Create(r.Context(), user); err != nil {
		if errors.Is(err, db.ErrEmailTaken) {
			shared.SendError(w, "Email already registered", http.StatusConflict)
			return
		}
		log.Printf("Error saving user %s: %v", user.Email, err)
		shared.SendError(w, "Cannot save user", http.StatusInternalServerError)
		return
	}

	log.Printf("User registered: %s", user.Email)
	shared.SendJSON(w, http.StatusCreated, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
	})
}

func validateCredentials(w http.ResponseWriter, input credentials) bool {
	if !isValidEmail(input.Email) {
		log.Printf("Invalid email format")
		shared.SendError(w, "Invalid email", http.StatusBadRequest)
		return false
	}
	if len(input.Password) < minPasswordLength {
		log.Printf("Password too short")
		shared.SendError(w, "Password must be at least 4 characters long", http.StatusBadRequest)
		return false
	}
	return true
}

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}
