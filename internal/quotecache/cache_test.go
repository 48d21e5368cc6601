package quotecache

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fayedaihall/tesseracts-world/internal/domain"
)

func quoteExpiring(id string, ttl time.Duration) *domain.Quote {
	now := time.Now().UTC()
	return &domain.Quote{
		QuoteID:         id,
		ProviderID:      "local_test",
		ServiceType:     domain.ServiceDelivery,
		EstimatedCost:   decimal.NewFromInt(10),
		IssuedAt:        now,
		ExpiresAt:       now.Add(ttl),
		ConfidenceScore: 0.9,
	}
}

func TestTakeIfValid_ReturnsQuoteOnce(t *testing.T) {
	c := New()
	c.Put(quoteExpiring("q1", time.Minute))

	quote, err := c.TakeIfValid("q1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.QuoteID != "q1" {
		t.Errorf("expected q1, got %s", quote.QuoteID)
	}

	// Second take sees NotFound.
	if _, err := c.TakeIfValid("q1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTakeIfValid_UnknownID(t *testing.T) {
	c := New()
	if _, err := c.TakeIfValid("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTakeIfValid_Expired(t *testing.T) {
	c := New()
	c.Put(quoteExpiring("stale", -time.Minute))

	if _, err := c.TakeIfValid("stale"); !errors.Is(err, ErrExpired) {
		t.Errorf("expected ErrExpired, got %v", err)
	}

	// An expired take also consumes the entry.
	if _, err := c.TakeIfValid("stale"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after expired take, got %v", err)
	}
}

func TestTakeIfValid_AtMostOnceUnderContention(t *testing.T) {
	c := New()
	c.Put(quoteExpiring("contested", time.Minute))

	const callers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0

	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			if _, err := c.TakeIfValid("contested"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("expected exactly 1 successful take, got %d", wins)
	}
}

func TestSweepExpired_RemovesOnlyExpired(t *testing.T) {
	c := New()
	c.Put(quoteExpiring("fresh", time.Hour))
	c.Put(quoteExpiring("stale1", -time.Minute))
	c.Put(quoteExpiring("stale2", -time.Hour))

	removed := c.SweepExpired(time.Now().UTC())
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 remaining, got %d", c.Len())
	}

	if _, err := c.TakeIfValid("fresh"); err != nil {
		t.Errorf("fresh quote should still be takeable: %v", err)
	}
}

func TestSweepThenTake_NeverBothSucceed(t *testing.T) {
	c := New()

	const rounds = 100
	for i := 0; i < rounds; i++ {
		id := fmt.Sprintf("q%d", i)
		c.Put(quoteExpiring(id, -time.Second))

		var wg sync.WaitGroup
		var taken, swept bool
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := c.TakeIfValid(id); err == nil {
				taken = true
			}
		}()
		go func() {
			defer wg.Done()
			if c.SweepExpired(time.Now().UTC()) > 0 {
				swept = true
			}
		}()
		wg.Wait()

		if taken {
			t.Fatalf("round %d: expired quote must never be taken", i)
		}
		_ = swept
	}
}

func TestSweptQuoteCannotBeAccepted(t *testing.T) {
	c := New()
	c.Put(quoteExpiring("gone", -time.Minute))

	if removed := c.SweepExpired(time.Now().UTC()); removed != 1 {
		t.Fatalf("expected sweep to remove the quote, removed %d", removed)
	}

	if _, err := c.TakeIfValid("gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after sweep, got %v", err)
	}
}
