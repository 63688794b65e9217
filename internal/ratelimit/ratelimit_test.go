package ratelimit

import (
	"testing"
	"time"
)

func TestAllow_AdmitsExactlyCapacityThenBlocks(t *testing.T) {
	l := New(Config{Capacity: 15, Window: time.Second, Block: 60 * time.Second})
	defer l.Close()

	admitted := 0
	for i := 0; i < 16; i++ {
		d := l.Allow("1.2.3.4")
		if d.Allowed {
			admitted++
		}
	}
	if admitted != 15 {
		t.Fatalf("expected exactly 15 admissions, got %d", admitted)
	}

	d := l.Allow("1.2.3.4")
	if d.Allowed {
		t.Fatalf("expected the 17th request to be blocked")
	}
	if d.RetryAfter < 59*time.Second {
		t.Fatalf("expected retry-after close to the block duration, got %v", d.RetryAfter)
	}
}

func TestAllow_PerClientIsolation(t *testing.T) {
	l := New(Config{Capacity: 1, Window: time.Second, Block: time.Minute})
	defer l.Close()

	if !l.Allow("a").Allowed {
		t.Fatalf("first request from a should be admitted")
	}
	if !l.Allow("b").Allowed {
		t.Fatalf("first request from b should be admitted regardless of a's state")
	}
	if l.Allow("a").Allowed {
		t.Fatalf("second request from a within the window should be rejected")
	}
}

func TestAllow_WindowSlides(t *testing.T) {
	l := New(Config{Capacity: 1, Window: 10 * time.Millisecond, Block: 5 * time.Millisecond})
	defer l.Close()

	if !l.Allow("a").Allowed {
		t.Fatalf("first request should be admitted")
	}
	if l.Allow("a").Allowed {
		t.Fatalf("immediate second request should be blocked")
	}
	time.Sleep(60 * time.Millisecond)
	if !l.Allow("a").Allowed {
		t.Fatalf("request after block window elapses should be admitted")
	}
}
