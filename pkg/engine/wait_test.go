package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestWaitSucceedsImmediately(t *testing.T) {
	calls := 0
	ok := Wait(context.Background(), zerolog.Nop(), time.Second, time.Millisecond,
		func(ctx context.Context) (bool, error) {
			calls++
			return true, nil
		})
	if !ok {
		t.Fatal("expected success")
	}
	if calls != 1 {
		t.Errorf("expected 1 evaluation, got %d", calls)
	}
}

func TestWaitPollsUntilReady(t *testing.T) {
	calls := 0
	ok := Wait(context.Background(), zerolog.Nop(), time.Second, time.Millisecond,
		func(ctx context.Context) (bool, error) {
			calls++
			return calls >= 3, nil
		})
	if !ok {
		t.Fatal("expected success after polling")
	}
	if calls != 3 {
		t.Errorf("expected 3 evaluations, got %d", calls)
	}
}

func TestWaitTimesOut(t *testing.T) {
	ok := Wait(context.Background(), zerolog.Nop(), 20*time.Millisecond, time.Millisecond,
		func(ctx context.Context) (bool, error) {
			return false, nil
		})
	if ok {
		t.Fatal("expected timeout")
	}
}

func TestWaitPredicateErrorMeansNotReady(t *testing.T) {
	// Errors from the predicate are treated as "not ready yet", not as
	// hard failures: polling continues until the deadline.
	calls := 0
	ok := Wait(context.Background(), zerolog.Nop(), 20*time.Millisecond, time.Millisecond,
		func(ctx context.Context) (bool, error) {
			calls++
			return false, errors.New("element enumeration failed")
		})
	if ok {
		t.Fatal("expected timeout")
	}
	if calls < 2 {
		t.Errorf("expected polling to continue past a predicate error, got %d calls", calls)
	}
}

func TestWaitHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok := Wait(ctx, zerolog.Nop(), time.Minute, time.Millisecond,
		func(ctx context.Context) (bool, error) {
			return false, nil
		})
	if ok {
		t.Fatal("expected failure on cancelled context")
	}
}
