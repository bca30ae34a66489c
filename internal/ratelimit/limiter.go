package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Policy is a per-action fixed-window threshold. Thresholds are configuration,
// not code: the API layer picks a Policy per endpoint.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Decision is the outcome of a limiter check. RetryAfter is only meaningful
// when Allowed is false.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter counts requests per (action, caller) within a fixed window and
// rejects once the window's counter exceeds the policy limit. The first
// request in a window starts it; the counter resets when the window expires.
type Limiter interface {
	Allow(ctx context.Context, action, callerKey string, policy Policy) (*Decision, error)
}

// windowKey builds the counter key for one caller and action.
func windowKey(action, callerKey string) string {
	return fmt.Sprintf("ratelimit:%s:%s", action, callerKey)
}
