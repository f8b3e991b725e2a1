package httpapi

import (
	"context"
	"net/http"
)

// serverBaseCtx is cancelled when the server shuts down. Long-lived event
// streams watch it so shutdown does not wait for clients to hang up.
var serverBaseCtx = context.Background()

// SetBaseContext sets the shutdown context watched by event streams.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	serverBaseCtx = ctx
}

// streamContext derives the lifetime of an event stream: it ends with the
// request or with the server, whichever goes first.
func streamContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(r.Context())
	stop := context.AfterFunc(serverBaseCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
