package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPollInterval is the sleep between predicate evaluations in Wait.
const DefaultPollInterval = 500 * time.Millisecond

// Wait repeatedly evaluates predicate, sleeping interval between
// evaluations, until the predicate returns true or the elapsed wall-clock
// time exceeds timeout. Errors raised by the predicate count as "not ready
// yet" while polling; the last one is surfaced in the log only if the wait
// times out. Cancellation of ctx ends the wait early with false.
//
// The timeout is advisory: it is checked between poll iterations only, so a
// predicate call that blocks forever is not interrupted.
func Wait(ctx context.Context, log zerolog.Logger, timeout, interval time.Duration, predicate func(context.Context) (bool, error)) bool {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	start := time.Now()
	var lastErr error
	for {
		ok, err := predicate(ctx)
		if err == nil && ok {
			return true
		}
		if err != nil {
			lastErr = err
		}

		if time.Since(start) >= timeout {
			break
		}
		select {
		case <-time.After(interval):
		case <-ctx.Done():
			log.Debug().Err(ctx.Err()).Msg("wait cancelled")
			return false
		}
	}

	evt := log.Debug().Dur("timeout", timeout)
	if lastErr != nil {
		evt = evt.Err(lastErr)
	}
	evt.Msg("wait timed out")
	return false
}
