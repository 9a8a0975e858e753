package mid

import (
	"context"
	"net/http"
	"time"

	"github.com/lyrion-l2/lyrion-node/business/web/errs"
	"github.com/lyrion-l2/lyrion-node/foundation/web"
	"golang.org/x/time/rate"
)

// maxLimitWait is the longest a request is delayed to fit the budget
// before it is rejected.
const maxLimitWait = 250 * time.Millisecond

// RateLimit holds requests to the global budget of the limiter. Requests
// that cannot be served in time, or that are cancelled while waiting,
// receive a JSON-RPC rate limit error.
func RateLimit(limiter *rate.Limiter) web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			wctx, cancel := context.WithTimeout(ctx, maxLimitWait)
			defer cancel()

			if err := limiter.Wait(wctx); err != nil {
				resp := struct {
					JSONRPC string         `json:"jsonrpc"`
					ID      any            `json:"id"`
					Error   *errs.RPCError `json:"error"`
				}{
					JSONRPC: "2.0",
					Error:   errs.NewRPCError(errs.CodeRateLimited, "rate limit exceeded"),
				}
				return web.Respond(ctx, w, resp, http.StatusTooManyRequests)
			}

			// Call the next handler.
			return handler(ctx, w, r)
		}

		return h
	}

	return m
}
