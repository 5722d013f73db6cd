package ratelimit

import (
	"testing"
	"time"
)

func newTestLimiter(maxCount int, window time.Duration) (*Limiter, *time.Time) {
	l := NewLimiter(
		Limit{MaxCount: maxCount, Window: window},
		Limit{MaxCount: maxCount, Window: window},
		Limit{MaxCount: maxCount, Window: window},
	)
	now := time.Now()
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiter_BurstWithinWindow(t *testing.T) {
	l, _ := newTestLimiter(3, 10*time.Second)

	for i := 0; i < 3; i++ {
		if !l.Allow("conn1", CategoryPlacement) {
			t.Fatalf("Action %d should be within budget", i+1)
		}
	}
	if l.Allow("conn1", CategoryPlacement) {
		t.Error("Action over budget should be rejected")
	}
	if l.Allow("conn1", CategoryPlacement) {
		t.Error("Repeated over-budget action should stay rejected")
	}
}

func TestLimiter_WindowReset(t *testing.T) {
	l, now := newTestLimiter(2, 10*time.Second)

	l.Allow("conn1", CategoryShot)
	l.Allow("conn1", CategoryShot)
	if l.Allow("conn1", CategoryShot) {
		t.Fatal("Third shot in the window should be rejected")
	}

	*now = now.Add(10 * time.Second)
	if !l.Allow("conn1", CategoryShot) {
		t.Error("Shot after the window elapsed should be allowed")
	}
}

func TestLimiter_CategoriesAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(1, 10*time.Second)

	l.Allow("conn1", CategoryPlacement)
	if l.Allow("conn1", CategoryPlacement) {
		t.Fatal("Second placement should be rejected")
	}
	if !l.Allow("conn1", CategoryShot) {
		t.Error("Shot budget is separate from placement budget")
	}
	if !l.Allow("conn1", CategoryOther) {
		t.Error("Other budget is separate from placement budget")
	}
}

func TestLimiter_IdentitiesAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(1, 10*time.Second)

	l.Allow("conn1", CategoryPlacement)
	if !l.Allow("conn2", CategoryPlacement) {
		t.Error("A second connection has its own budget")
	}
}

func TestLimiter_Forget(t *testing.T) {
	l, _ := newTestLimiter(1, 10*time.Second)

	l.Allow("conn1", CategoryPlacement)
	if l.Allow("conn1", CategoryPlacement) {
		t.Fatal("Second placement should be rejected")
	}

	l.Forget("conn1")
	if !l.Allow("conn1", CategoryPlacement) {
		t.Error("Forget should reset the identity's windows")
	}
}

func TestLimiter_ZeroLimitAllowsEverything(t *testing.T) {
	l := NewLimiter(Limit{}, Limit{}, Limit{})
	for i := 0; i < 100; i++ {
		if !l.Allow("conn1", CategoryOther) {
			t.Fatal("An unconfigured category should never reject")
		}
	}
}
