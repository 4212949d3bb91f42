package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/greenroomhq/greenroom/internal/logging"
)

func TestRetrySucceedsAfterFailure(t *testing.T) {
	attempts := 0
	got, err := retry(context.Background(), 3, func() (int, error) {
		attempts++
		if attempts < 2 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got != 42 || attempts != 2 {
		t.Errorf("got %d after %d attempts, want 42 after 2", got, attempts)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	wantErr := errors.New("permanent")
	attempts := 0
	_, err := retry(context.Background(), 2, func() (string, error) {
		attempts++
		return "", wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want the last failure", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	start := time.Now()
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := retry(ctx, 5, func() (int, error) {
		return 0, errors.New("always fails")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > 400*time.Millisecond {
		t.Errorf("cancel took %v to cut the backoff short", elapsed)
	}
}

func TestClaimDeduplicates(t *testing.T) {
	p := newProcessor(nil, nil, nil, nil, logging.Nop())

	if !p.claim(7) {
		t.Error("first claim of seq 7 rejected")
	}
	if p.claim(7) {
		t.Error("second claim of seq 7 accepted")
	}
	if !p.claim(8) {
		t.Error("different seq rejected")
	}

	// Unstamped jobs are never deduplicated.
	if !p.claim(0) || !p.claim(0) {
		t.Error("seq zero should always be accepted")
	}
}
