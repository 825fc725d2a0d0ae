package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type scriptedProvider struct {
	mu      sync.Mutex
	calls   int
	replies []string
	errs    []error
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return "", p.errs[i]
	}
	if i < len(p.replies) {
		return p.replies[i], nil
	}
	return "", errors.New("script exhausted")
}

type recordingSleeper struct{ delays []time.Duration }

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func TestInvoke_AlwaysFailingProviderMakesThreeAttempts(t *testing.T) {
	boom := errors.New("upstream 503")
	p := &scriptedProvider{errs: []error{boom, boom, boom, boom}}
	rec := &recordingSleeper{}
	iv := &Invoker{Provider: p, Unit: time.Millisecond, Sleep: rec.sleep}

	_, err := iv.Invoke(context.Background(), "prompt")
	if err == nil {
		t.Fatalf("expected error")
	}
	if p.calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", p.calls)
	}
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Attempts != 3 {
		t.Fatalf("expected ProviderError with 3 attempts, got %#v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected last failure to be wrapped")
	}
	if len(rec.delays) != 2 {
		t.Fatalf("expected 2 waits, got %v", rec.delays)
	}
	for i := 1; i < len(rec.delays); i++ {
		if rec.delays[i] < rec.delays[i-1] {
			t.Fatalf("delays decreased: %v", rec.delays)
		}
	}
	if rec.delays[0] != 2*time.Millisecond || rec.delays[1] != 4*time.Millisecond {
		t.Fatalf("unexpected delays: %v", rec.delays)
	}
}

func TestInvoke_SucceedsAfterTransientFailure(t *testing.T) {
	p := &scriptedProvider{errs: []error{errors.New("timeout")}, replies: []string{"", "ok"}}
	rec := &recordingSleeper{}
	iv := &Invoker{Provider: p, Unit: time.Millisecond, Sleep: rec.sleep}
	out, err := iv.Invoke(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "ok" || p.calls != 2 || len(rec.delays) != 1 {
		t.Fatalf("out=%q calls=%d delays=%v", out, p.calls, rec.delays)
	}
}

func TestInvoke_CancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := ProviderFunc(func(context.Context, string) (string, error) {
		cancel()
		return "", errors.New("fail")
	})
	iv := &Invoker{Provider: p, Unit: time.Hour}
	start := time.Now()
	_, err := iv.Invoke(ctx, "prompt")
	if time.Since(start) > 5*time.Second {
		t.Fatalf("backoff wait was not interrupted")
	}
	if !errors.Is(err, context.Canceled) || !errors.Is(err, ErrProvider) {
		t.Fatalf("expected cancelled ProviderError, got %v", err)
	}
}

func TestBackoff_Clamped(t *testing.T) {
	want := map[int]time.Duration{1: 0, 2: 2, 3: 4, 4: 8, 5: 10, 6: 10, 40: 10}
	for k, w := range want {
		if got := Backoff(k, 1); got != w {
			t.Fatalf("Backoff(%d)=%v want %v", k, got, w)
		}
	}
}
