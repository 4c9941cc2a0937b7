package recognize

import (
	"context"
	"testing"
	"time"
)

func TestNewLimiter_Interval(t *testing.T) {
	tests := []struct {
		rpm  int
		want time.Duration
	}{
		{60, time.Second},
		{15, 4 * time.Second},
		{600, 100 * time.Millisecond},
	}
	for _, tt := range tests {
		l := NewLimiter(tt.rpm)
		if l.Interval() != tt.want {
			t.Errorf("NewLimiter(%d).Interval() = %v, want %v", tt.rpm, l.Interval(), tt.want)
		}
	}
}

func TestLimiter_SpacesConsecutiveCalls(t *testing.T) {
	l := NewLimiter(600) // 100ms spacing
	ctx := context.Background()

	if err := l.Wait(ctx); err != nil {
		t.Fatalf("first Wait: %v", err)
	}
	start := time.Now()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("second Wait: %v", err)
	}
	// Tolerance-bounded: timers may fire slightly early on coarse clocks.
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("second Wait returned after %v, want at least ~100ms", elapsed)
	}
}

func TestLimiter_CancelledContext(t *testing.T) {
	l := NewLimiter(1) // 60s spacing, the second call would block for a minute
	ctx, cancel := context.WithCancel(context.Background())

	if err := l.Wait(ctx); err != nil {
		t.Fatalf("first Wait: %v", err)
	}
	cancel()
	if err := l.Wait(ctx); err == nil {
		t.Error("Wait with cancelled context returned nil, want error")
	}
}
