package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"cryptochecker/internal/aggregate"
	"cryptochecker/internal/provider"
)

const maxSymbols = 1000

// Catalog is the read side of the tracked symbol list.
type Catalog interface {
	List() []string
}

type api struct {
	looker      aggregate.Looker
	catalog     Catalog
	concurrency int
	timeout     time.Duration
	log         *zap.Logger
}

type quotesResponse struct {
	Results []aggregate.Result `json:"results"`
}

type catalogResponse struct {
	Symbols []string `json:"symbols"`
}

type postBody struct {
	Symbols []string `json:"symbols"`
}

func newRouter(a *api) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(withRequestLog(a.log))
	r.Use(withJSONHeaders)
	r.Use(withGzip)
	r.Use(recoverPanic(a.log))
	r.Use(limitBody)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/quotes", a.getQuotes)
	r.Post("/api/quotes", a.postQuotes)
	r.Get("/api/catalog", a.getCatalog)
	return r
}

func (a *api) getQuotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("symbols")
	if strings.TrimSpace(q) == "" {
		writeError(w, http.StatusBadRequest, "missing symbols query param")
		return
	}
	a.writeQuotes(w, r.Context(), aggregate.SplitCSV(q))
}

func (a *api) postQuotes(w http.ResponseWriter, r *http.Request) {
	var b postBody
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	a.writeQuotes(w, r.Context(), aggregate.Symbols(b.Symbols))
}

func (a *api) getCatalog(w http.ResponseWriter, r *http.Request) {
	symbols := a.catalog.List()
	if symbols == nil {
		symbols = []string{}
	}
	writeJSON(w, http.StatusOK, catalogResponse{Symbols: symbols})
}

func (a *api) writeQuotes(w http.ResponseWriter, rctx context.Context, symbols []string) {
	if len(symbols) == 0 {
		writeError(w, http.StatusBadRequest, "symbols cannot be empty")
		return
	}
	if len(symbols) > maxSymbols {
		writeError(w, http.StatusBadRequest, "too many symbols (max 1000)")
		return
	}

	timeout := a.timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(rctx, timeout)
	defer cancel()
	results := aggregate.Lookup(ctx, a.looker, symbols, a.concurrency)

	status := http.StatusOK
	if upstreamDown(results) {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, quotesResponse{Results: results})
}

// upstreamDown reports whether every lookup failed for a reason other
// than the symbol itself.
func upstreamDown(results []aggregate.Result) bool {
	for _, r := range results {
		if r.OK() {
			return false
		}
		switch provider.KindOf(r.Err) {
		case provider.ErrNotFound, provider.ErrNoPriceData:
			return false
		}
	}
	return len(results) > 0
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
