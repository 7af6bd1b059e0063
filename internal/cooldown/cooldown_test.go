package cooldown

import (
	"testing"
	"time"
)

func TestSuppressedInclusiveBoundary(t *testing.T) {
	cache := NewCache()
	now := time.Unix(1_700_000_000, 0)
	expiry := now.Add(60 * time.Second)

	cache.SuppressUntil("token-a", expiry)

	if !cache.Suppressed("token-a", now) {
		t.Fatalf("expected token to be suppressed before expiry")
	}
	if !cache.Suppressed("token-a", expiry) {
		t.Fatalf("expected token to be suppressed exactly at expiry")
	}
	if cache.Suppressed("token-a", expiry.Add(time.Nanosecond)) {
		t.Fatalf("expected token to be released after expiry")
	}
}

func TestSuppressedUnknownToken(t *testing.T) {
	cache := NewCache()
	if cache.Suppressed("never-seen", time.Now()) {
		t.Fatalf("unknown token must not be suppressed")
	}
}

func TestSuppressUntilOverwrites(t *testing.T) {
	cache := NewCache()
	now := time.Unix(1_700_000_000, 0)

	cache.SuppressUntil("token-a", now.Add(time.Minute))
	cache.SuppressUntil("token-a", now.Add(10*time.Minute))

	if !cache.Suppressed("token-a", now.Add(5*time.Minute)) {
		t.Fatalf("expected extended suppression to win")
	}

	// Shortening must also take effect; the last write wins.
	cache.SuppressUntil("token-a", now.Add(time.Second))
	if cache.Suppressed("token-a", now.Add(2*time.Second)) {
		t.Fatalf("expected shortened suppression to win")
	}
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	cache := NewCache()
	now := time.Unix(1_700_000_000, 0)

	cache.SuppressUntil("expired-1", now.Add(-time.Minute))
	cache.SuppressUntil("expired-2", now.Add(-time.Second))
	cache.SuppressUntil("active", now.Add(time.Hour))

	removed := cache.Sweep(now)
	if removed != 2 {
		t.Fatalf("expected 2 entries removed, got %d", removed)
	}
	if cache.Len() != 1 {
		t.Fatalf("expected 1 entry to remain, got %d", cache.Len())
	}
	if !cache.Suppressed("active", now) {
		t.Fatalf("active entry must survive the sweep")
	}
}

func TestSweepKeepsBoundaryEntry(t *testing.T) {
	cache := NewCache()
	now := time.Unix(1_700_000_000, 0)

	cache.SuppressUntil("boundary", now)

	// An entry expiring exactly now still suppresses, so it must survive.
	if removed := cache.Sweep(now); removed != 0 {
		t.Fatalf("expected boundary entry to survive sweep, removed %d", removed)
	}
	if !cache.Suppressed("boundary", now) {
		t.Fatalf("boundary entry must still suppress at its expiry instant")
	}
}
