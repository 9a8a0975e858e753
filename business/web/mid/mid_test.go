package mid_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lyrion-l2/lyrion-node/business/web/errs"
	"github.com/lyrion-l2/lyrion-node/business/web/mid"
	"github.com/lyrion-l2/lyrion-node/foundation/logger"
	"github.com/lyrion-l2/lyrion-node/foundation/web"
	"golang.org/x/time/rate"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestMiddleware(t *testing.T) {
	log := logger.NewNop()

	app := web.NewApp(nil, mid.Logger(log), mid.Errors(log), mid.Metrics(), mid.Panics())

	app.Handle(http.MethodGet, "", "/trusted", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return errs.NewTrusted(errors.New("bad input"), http.StatusBadRequest)
	})
	app.Handle(http.MethodGet, "", "/panic", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		panic("boom")
	})
	app.Handle(http.MethodGet, "", "/limited", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, "ok", http.StatusOK)
	}, mid.RateLimit(rate.NewLimiter(rate.Limit(0.001), 1)), mid.Cors("*"))

	t.Log("Given the need to handle errors in the middleware chain.")
	{
		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/trusted", nil))
		if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "bad input") {
			t.Fatalf("\t%s\tShould respond with the trusted error: %d %s", failed, w.Code, w.Body.String())
		}
		t.Logf("\t%s\tShould respond with the trusted error.", success)

		w = httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("\t%s\tShould turn a panic into a 500, got %d.", failed, w.Code)
		}
		t.Logf("\t%s\tShould turn a panic into a 500.", success)
	}

	t.Log("Given the need to limit the request rate.")
	{
		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil))
		if w.Code != http.StatusOK || w.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Fatalf("\t%s\tShould serve the first request with cors headers, got %d.", failed, w.Code)
		}
		t.Logf("\t%s\tShould serve the first request with cors headers.", success)

		w = httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil))
		if w.Code != http.StatusTooManyRequests || !strings.Contains(w.Body.String(), "-32005") {
			t.Fatalf("\t%s\tShould reject the second request, got %d %s.", failed, w.Code, w.Body.String())
		}
		t.Logf("\t%s\tShould reject the second request.", success)
	}
}

func TestRateLimitWait(t *testing.T) {
	app := web.NewApp(nil)
	app.Handle(http.MethodGet, "", "/limited", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, "ok", http.StatusOK)
	}, mid.RateLimit(rate.NewLimiter(rate.Every(100*time.Millisecond), 1)))

	t.Log("Given the need to delay requests that fit the budget shortly.")
	{
		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("\t%s\tShould serve the first request, got %d.", failed, w.Code)
		}
		t.Logf("\t%s\tShould serve the first request.", success)

		start := time.Now()
		w = httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil))
		if w.Code != http.StatusOK || time.Since(start) < 50*time.Millisecond {
			t.Fatalf("\t%s\tShould delay and then serve the second request, got %d after %v.", failed, w.Code, time.Since(start))
		}
		t.Logf("\t%s\tShould delay and then serve the second request.", success)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		start = time.Now()
		w = httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil).WithContext(ctx))
		if w.Code != http.StatusTooManyRequests || time.Since(start) > 50*time.Millisecond {
			t.Fatalf("\t%s\tShould stop waiting for a cancelled request, got %d after %v.", failed, w.Code, time.Since(start))
		}
		t.Logf("\t%s\tShould stop waiting for a cancelled request.", success)
	}
}
