package quote

import (
	"testing"
	"time"
)

func TestNextDelay_Schedule(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 2 * time.Second}, // clamped to attempt 1
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second}, // 32s capped
		{6, 30 * time.Second},
		{20, 30 * time.Second},
	}
	for _, c := range cases {
		if got := NextDelay(c.attempt); got != c.want {
			t.Fatalf("NextDelay(%d) = %v; want %v", c.attempt, got, c.want)
		}
	}
}

func TestBackoff_CustomPolicy(t *testing.T) {
	d := Backoff(time.Second, 5*time.Second)
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 5 * time.Second}, // 8s capped
		{9, 5 * time.Second},
	}
	for _, c := range cases {
		if got := d(c.attempt); got != c.want {
			t.Fatalf("delay(%d) = %v; want %v", c.attempt, got, c.want)
		}
	}
}

func TestBackoff_ZeroFallsBackToDefaults(t *testing.T) {
	d := Backoff(0, 0)
	if got := d(1); got != 2*time.Second {
		t.Fatalf("delay(1) = %v; want 2s", got)
	}
	if got := d(10); got != 30*time.Second {
		t.Fatalf("delay(10) = %v; want 30s", got)
	}
}
