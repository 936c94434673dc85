package middleware

import (
	"bytes"
	"context"
	"net/http"

	"github.com/partner-gateway-service/internal/idempotency"
	"github.com/partner-gateway-service/internal/metrics"
)

// IdempotencyKeyHeader is the client-supplied key scoping "the same logical
// request" across retries.
const IdempotencyKeyHeader = "Idempotency-Key"

// ReplayHeader marks a response replayed from the idempotency store.
const ReplayHeader = "Idempotent-Replay"

// Idempotent returns middleware that deduplicates retried mutating requests.
// Requests without the key header pass straight through; protection is
// opt-in per call.
func Idempotent(guard *idempotency.Guard, collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey := r.Header.Get(IdempotencyKeyHeader)
			if clientKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			routeKey := r.Method + " " + r.URL.Path
			resp, replayed, err := guard.Do(r.Context(), routeKey, clientKey, func(_ context.Context) (idempotency.Response, error) {
				rec := newResponseRecorder()
				next.ServeHTTP(rec, r)
				return idempotency.Response{StatusCode: rec.status, Body: rec.buf.Bytes()}, nil
			})
			if err != nil {
				respondError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
				return
			}

			if collector != nil {
				if replayed {
					collector.RecordIdempotencyReplay()
				} else {
					collector.RecordIdempotencyExecution()
				}
			}
			if replayed {
				w.Header().Set(ReplayHeader, "true")
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(resp.StatusCode)
			w.Write(resp.Body)
		})
	}
}

// responseRecorder buffers a handler's response so the guard can record and
// replay it byte for byte.
type responseRecorder struct {
	header http.Header
	status int
	buf    bytes.Buffer
}

func newResponseRecorder() *responseRecorder {
	return &responseRecorder{header: make(http.Header), status: http.StatusOK}
}

func (r *responseRecorder) Header() http.Header {
	return r.header
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	return r.buf.Write(b)
}
