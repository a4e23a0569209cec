package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/searchforge/rank_aggregator/obs"
)

const (
	traceHeader = "X-Trace-Id"
)

// Aggregator is the controller surface the router needs. The concrete
// implementation lives in internal/controller; the interface keeps the import
// direction pointing inward.
type Aggregator interface {
	Aggregate(ctx context.Context, req AggregateRequest) (ResponseV1, error)
	MaxOutput() int
}

// Router wires the HTTP endpoints for the rank aggregator.
type Router struct {
	aggregator Aggregator
	ready      http.HandlerFunc
}

// NewRouter constructs the HTTP router. ready serves /readyz when provided.
func NewRouter(agg Aggregator, ready http.HandlerFunc) (*chi.Mux, error) {
	if agg == nil {
		return nil, errors.New("aggregator is required")
	}
	r := &Router{
		aggregator: agg,
		ready:      ready,
	}

	mux := chi.NewRouter()
	mux.Get("/healthz", r.handleHealthz)
	mux.Get("/readyz", r.handleReadyz)
	mux.Post("/v1/aggregate", r.handleAggregate)

	return mux, nil
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Router) handleReadyz(w http.ResponseWriter, req *http.Request) {
	if r.ready != nil {
		r.ready(w, req)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (r *Router) handleAggregate(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	ctx := req.Context()

	traceID := req.Header.Get(traceHeader)
	if traceID == "" {
		traceID = uuid.NewString()
	}
	w.Header().Set(traceHeader, traceID)
	ctx = ContextWithTraceID(ctx, traceID)

	var aggReq AggregateRequest
	if err := json.NewDecoder(req.Body).Decode(&aggReq); err != nil {
		obs.ObserveAggregateRequest("BAD_REQUEST", time.Since(start), traceID)
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	aggReq.TraceID = traceID
	aggReq.Claim = normalizeText(aggReq.Claim)
	for i, q := range aggReq.Queries {
		aggReq.Queries[i] = normalizeText(q)
	}

	resp, err := r.aggregator.Aggregate(ctx, aggReq)
	code := resp.RetCode
	if code == "" {
		code = "OK"
	}
	obs.ObserveAggregateRequest(code, time.Since(start), traceID)

	if err != nil {
		if errors.Is(err, ErrUpstreamOutage) {
			writeJSONStatus(w, http.StatusBadGateway, resp)
			return
		}
		status := http.StatusBadGateway
		if errors.Is(err, ErrBadRequest) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	writeJSONStatus(w, http.StatusOK, resp)
}

func normalizeText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	s = norm.NFKC.String(s)
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

func writeJSONStatus(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
