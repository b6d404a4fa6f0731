package httpapi

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSetMaxBodyBytes(t *testing.T) {
	t.Cleanup(func() { SetMaxBodyBytes(0) })
	SetMaxBodyBytes(512)
	if maxBodyBytes != 512 {
		t.Fatalf("maxBodyBytes = %d", maxBodyBytes)
	}
	SetMaxBodyBytes(-1)
	if maxBodyBytes != 1<<20 {
		t.Fatalf("non-positive should restore the default, got %d", maxBodyBytes)
	}
}

func TestRequestContext(t *testing.T) {
	t.Cleanup(func() {
		SetRequestTimeoutSeconds(0)
		SetBaseContext(nil)
	})

	SetRequestTimeoutSeconds(-3)
	if requestTimeout != 0 {
		t.Fatalf("negative timeout = %d", requestTimeout)
	}
	ctx, cancel := requestContext(context.Background())
	if _, ok := ctx.Deadline(); ok {
		t.Fatal("no deadline expected when the timeout is disabled")
	}
	cancel()

	SetRequestTimeoutSeconds(5)
	ctx, cancel = requestContext(context.Background())
	dl, ok := ctx.Deadline()
	if !ok || time.Until(dl) > 5*time.Second {
		t.Fatalf("deadline %v %v", dl, ok)
	}
	cancel()

	base, stop := context.WithCancel(context.Background())
	SetBaseContext(base)
	ctx, cancel = requestContext(context.Background())
	defer cancel()
	stop()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("base context cancellation did not propagate")
	}
}

func TestRequestLogLevel(t *testing.T) {
	cases := []struct {
		query, header string
		want          LogLevel
	}{
		{"?log=1", "", LevelDebug},
		{"?log=off", "", LevelOff},
		{"?log=error", "debug", LevelError},
		{"", "debug", LevelDebug},
		{"", "bogus", LevelInfo},
		{"", "", defaultLogLevel},
	}
	for _, c := range cases {
		r := httptest.NewRequest("POST", "/narrate"+c.query, nil)
		if c.header != "" {
			r.Header.Set("X-Log-Level", c.header)
		}
		if got := requestLogLevel(r); got != c.want {
			t.Errorf("query %q header %q: got %v, want %v", c.query, c.header, got, c.want)
		}
	}
}
