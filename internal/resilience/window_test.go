package resilience

import (
	"sync"
	"testing"
	"time"

	"github.com/scanforge/aicore/pkg/types"
)

func TestWindowLimiter_CeilingEnforced(t *testing.T) {
	l := NewWindowLimiter(3)

	for i := 0; i < 3; i++ {
		if !l.Check(types.BackendOpenAI) {
			t.Fatalf("request %d should be admitted", i+1)
		}
	}
	if l.Check(types.BackendOpenAI) {
		t.Error("request past the ceiling should be denied")
	}
	if got := l.Remaining(types.BackendOpenAI); got != 0 {
		t.Errorf("Remaining() = %d, want 0", got)
	}
}

func TestWindowLimiter_DenialDoesNotConsume(t *testing.T) {
	l := NewWindowLimiter(1)

	l.Check(types.BackendOpenAI)
	for i := 0; i < 5; i++ {
		l.Check(types.BackendOpenAI)
	}
	if got := l.Remaining(types.BackendOpenAI); got != 0 {
		t.Errorf("Remaining() = %d, want 0 (denials must not go negative)", got)
	}
}

func TestWindowLimiter_WindowReset(t *testing.T) {
	now := time.Now()
	l := NewWindowLimiter(3)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		l.Check(types.BackendOpenAI)
	}
	if l.Check(types.BackendOpenAI) {
		t.Fatal("fourth request in the window should be denied")
	}

	now = now.Add(61 * time.Second)

	if !l.Check(types.BackendOpenAI) {
		t.Error("request after window reset should be admitted")
	}
	if got := l.Remaining(types.BackendOpenAI); got != 2 {
		t.Errorf("Remaining() after reset = %d, want 2", got)
	}
}

func TestWindowLimiter_PerBackendIsolation(t *testing.T) {
	l := NewWindowLimiter(1)

	if !l.Check(types.BackendOpenAI) {
		t.Fatal("first openai request should be admitted")
	}
	if !l.Check(types.BackendClaude) {
		t.Error("claude window is independent of openai")
	}
	if l.Check(types.BackendOpenAI) {
		t.Error("second openai request should be denied")
	}
}

func TestWindowLimiter_SetCeiling(t *testing.T) {
	l := NewWindowLimiter(1)

	l.Check(types.BackendLocal)
	if l.Check(types.BackendLocal) {
		t.Fatal("ceiling 1 should deny the second request")
	}

	l.SetCeiling(types.BackendLocal, 5)
	if !l.Check(types.BackendLocal) {
		t.Error("raised ceiling should admit again")
	}
	if got := l.Ceiling(types.BackendLocal); got != 5 {
		t.Errorf("Ceiling() = %d, want 5", got)
	}
}

func TestWindowLimiter_ConcurrentChecks(t *testing.T) {
	const ceiling = 50
	l := NewWindowLimiter(ceiling)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Check(types.BackendOpenAI) {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != ceiling {
		t.Errorf("admitted = %d, want exactly %d", admitted, ceiling)
	}
}
