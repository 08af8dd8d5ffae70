package handlers

import (
	"github.com/chepyr/go-task-planner/internal/db"
	"github.com/chepyr/go-task-planner/internal/ratelimit"
)

type Handler struct {
	UserRepo    db.UserRepositoryInterface
	RateLimiter *ratelimit.Limiter
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

const minPasswordLength = 4
