package sheets

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/googleapi"

	"github.com/gajana-dev/gajana/internal/logger"
)

// retryer retries rate limiting and transient server errors with a
// doubling pause. max counts attempts, not retries.
type retryer struct {
	ctx     context.Context
	op      string
	max     int
	initial time.Duration
	attempt int
}

func (r *retryer) Retry(err error) (time.Duration, bool) {
	if r.attempt >= r.max-1 || !retryable(err) {
		return 0, false
	}
	pause := r.initial << r.attempt
	r.attempt++
	logger.FromContext(r.ctx).Warn().
		Err(err).
		Str("op", r.op).
		Int("attempt", r.attempt).
		Dur("pause", pause).
		Msg("google API call failed, retrying")
	return pause, true
}

func retryable(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	switch gerr.Code {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable:
		return true
	}
	return false
}

func (c *Client) invoke(ctx context.Context, op string, call func(context.Context) error) error {
	return gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		return call(ctx)
	}, gax.WithRetry(func() gax.Retryer {
		return &retryer{ctx: ctx, op: op, max: c.cfg.MaxRetries, initial: c.cfg.InitialBackoff}
	}))
}
