package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeClient struct {
	name  string
	calls int
	resp  *Response
	err   error
}

func (c *fakeClient) Name() string { return c.name }

func (c *fakeClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.resp, nil
}

func TestWithRateLimit_PassThrough(t *testing.T) {
	t.Parallel()

	if got := WithRateLimit(nil, 10); got != nil {
		t.Fatalf("WithRateLimit(nil): got %#v", got)
	}

	inner := &fakeClient{name: "fake"}
	if got := WithRateLimit(inner, 0); got != Client(inner) {
		t.Fatalf("WithRateLimit(cpm=0): expected unwrapped client")
	}
	if got := WithRateLimit(inner, -5); got != Client(inner) {
		t.Fatalf("WithRateLimit(cpm<0): expected unwrapped client")
	}

	wrapped := WithRateLimit(inner, 10)
	if _, ok := wrapped.(*rateLimitedClient); !ok {
		t.Fatalf("WithRateLimit: got %T want *rateLimitedClient", wrapped)
	}
	if wrapped.Name() != "fake" {
		t.Fatalf("Name: got %q want %q", wrapped.Name(), "fake")
	}
}

func TestRateLimitedClient_SpacesCalls(t *testing.T) {
	t.Parallel()

	inner := &fakeClient{name: "fake", resp: &Response{Text: "A"}}
	// 6000 calls/minute is a 10ms interval: the first call is free, the
	// next two wait out an interval each.
	c := WithRateLimit(inner, 6000)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := c.Complete(context.Background(), &Request{Prompt: "p"}); err != nil {
			t.Fatalf("Complete: %v", err)
		}
	}
	elapsed := time.Since(start)

	if inner.calls != 3 {
		t.Fatalf("calls: got %d want %d", inner.calls, 3)
	}
	if elapsed < 20*time.Millisecond {
		t.Fatalf("elapsed: got %v want >= %v", elapsed, 20*time.Millisecond)
	}
}

func TestRateLimitedClient_CanceledContext(t *testing.T) {
	t.Parallel()

	inner := &fakeClient{name: "fake", resp: &Response{}}
	c := WithRateLimit(inner, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Complete(ctx, &Request{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Complete(canceled): got %v", err)
	}
	if inner.calls != 0 {
		t.Fatalf("calls: got %d want %d", inner.calls, 0)
	}
}

func TestRateLimitedClient_NilGuards(t *testing.T) {
	t.Parallel()

	var cnil *rateLimitedClient
	if _, err := cnil.Complete(context.Background(), &Request{}); err == nil {
		t.Fatalf("Complete(nil client): expected error")
	}
	if cnil.Name() != "" {
		t.Fatalf("Name(nil): got %q", cnil.Name())
	}

	wrapped := WithRateLimit(&fakeClient{name: "fake"}, 1)
	if _, err := wrapped.Complete(nil, &Request{}); err == nil || !strings.Contains(err.Error(), "nil context") {
		t.Fatalf("Complete(nil ctx): got %v", err)
	}
}
