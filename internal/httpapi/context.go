package httpapi

import (
	"context"
	"time"
)

// serverBaseCtx is a process-level context that can be canceled on shutdown.
var serverBaseCtx = context.Background()

// SetBaseContext sets the process-level base context used by handlers.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// requestContext derives the context a generation runs under: the request
// context, also canceled when the server base context ends, and bounded by
// the configured request timeout.
func requestContext(r context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(r)
	stop := context.AfterFunc(serverBaseCtx, cancel)
	release := func() {
		stop()
		cancel()
	}
	if requestTimeout <= 0 {
		return ctx, release
	}
	tctx, tcancel := context.WithTimeout(ctx, time.Duration(requestTimeout)*time.Second)
	return tctx, func() {
		tcancel()
		release()
	}
}
