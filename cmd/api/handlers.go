package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/WessleyAI/wessley-parts/engine/domain"
	"github.com/WessleyAI/wessley-parts/pkg/mid"
)

const maxBodyBytes = 64 << 10

func (a *app) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", a.handleHealth)
	mux.HandleFunc("GET /api/parts/search", a.handleSearchQuery)
	mux.HandleFunc("POST /api/parts/search", a.handleSearchBody)
	mux.Handle("GET /metrics", a.metrics.Handler())

	return mid.Chain(mux,
		mid.OTel("wessley-parts-api"),
		mid.Recover(a.log),
		mid.RequestID(),
		mid.Logger(a.log),
		mid.Observe(a.metrics.ObserveHTTP),
		mid.CORS(a.cfg.CORSOrigin),
		mid.RateLimit(mid.RateLimitOpts{
			RPS:      a.cfg.RateLimitRPS,
			Burst:    a.cfg.RateLimitBurst,
			OnReject: func(*http.Request) { a.metrics.ObserveRateLimited() },
		}),
	)
}

// --- Handlers ---

func (a *app) handleHealth(w http.ResponseWriter, _ *http.Request) {
	breakers := map[string]string{}
	for slug, st := range a.breakers.States() {
		breakers[slug] = st.String()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sources":  a.slugs,
		"breakers": breakers,
	})
}

// SearchRequest is the JSON body for POST /api/parts/search.
type SearchRequest struct {
	Query   string                 `json:"query"`
	Vehicle *domain.VehicleContext `json:"vehicle,omitempty"`
}

func (a *app) handleSearchQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	a.search(w, r, SearchRequest{
		Query: q.Get("q"),
		Vehicle: &domain.VehicleContext{
			Year:  q.Get("year"),
			Make:  q.Get("make"),
			Model: q.Get("model"),
		},
	})
}

func (a *app) handleSearchBody(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	a.search(w, r, req)
}

func (a *app) search(w http.ResponseWriter, r *http.Request, req SearchRequest) {
	res, err := a.agg.Aggregate(r.Context(), req.Query, req.Vehicle)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Wrapped.Error(), "field": ve.Field})
			return
		}
		a.log.Error("aggregate failed", "err", err, "request_id", mid.RequestIDFrom(r.Context()))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
