package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger reports upstream retriever reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Readyz returns an http.Handler that reports retriever readiness.
func Readyz(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		err := p.Ping(r.Context())
		latency := time.Since(start)

		ok := err == nil && latency <= 200*time.Millisecond
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}

		payload := map[string]any{
			"retriever_ok": err == nil,
			"last_ping_ms": latency.Milliseconds(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(payload)
	}
}
