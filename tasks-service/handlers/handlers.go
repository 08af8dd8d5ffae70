package handlers

import (
	"time"

	"github.com/chepyr/go-task-planner/internal/db"
	"github.com/chepyr/go-task-planner/internal/ratelimit"
	"golang.org/x/sync/singleflight"
)

type Handler struct {
	TaskRepo    db.TaskRepositoryInterface
	RateLimiter *ratelimit.Limiter
	WSHub       *WSHub
	// Now is the clock used for ranking and timestamps; nil means time.Now.
	Now func() time.Time

	// collapses concurrent snapshot fetches of the same user
	listGroup singleflight.Group
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}
