package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/hazyhaar/tournee-registry/pkg/importer"
	"github.com/hazyhaar/tournee-registry/pkg/kit"
	"github.com/hazyhaar/tournee-registry/pkg/lookup"
	"github.com/hazyhaar/tournee-registry/pkg/route"
)

// maxImportBytes bounds an uploaded spreadsheet.
const maxImportBytes = 8 << 20

// NewRouter returns an http.Handler with all route registry API routes.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()
	h := &handler{eps: newEndpoints(d), deps: d}

	mux.HandleFunc("GET /v1/lookup", h.handleLookup)
	mux.HandleFunc("GET /v1/lookup/batch", methodNotAllowed) // prevent GET on batch
	mux.HandleFunc("POST /v1/lookup/batch", h.handleLookupBatch)
	mux.HandleFunc("GET /v1/resolve/{word}", h.handleResolve)
	mux.HandleFunc("GET /v1/search", h.handleSearch)
	mux.HandleFunc("GET /v1/arms", h.handleArms)
	mux.HandleFunc("GET /v1/arms/{bras}/cities", h.handleCities)
	mux.HandleFunc("GET /v1/routes", h.handleListRoutes)
	mux.HandleFunc("POST /v1/routes", h.handleAddRoute)
	mux.HandleFunc("GET /v1/routes/{id}", h.handleGetRoute)
	mux.HandleFunc("PUT /v1/routes/{id}", h.handleUpdateRoute)
	mux.HandleFunc("DELETE /v1/routes/{id}", h.handleDeleteRoute)
	mux.HandleFunc("POST /v1/import", h.handleImport)
	mux.HandleFunc("GET /v1/export", h.handleExport)
	mux.HandleFunc("GET /v1/health", h.handleHealth)

	return cors(securityHeaders(mux))
}

type handler struct {
	eps  *endpoints
	deps Deps
}

// serve runs ep and writes its response, or the error mapped to a status.
func (h *handler) serve(w http.ResponseWriter, r *http.Request, ep kit.Endpoint, req any, okStatus int) {
	ctx := kit.WithTransport(r.Context(), "http")
	if id := r.Header.Get("X-Request-ID"); id != "" {
		ctx = kit.WithRequestID(ctx, id)
	}
	resp, err := ep(ctx, req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, okStatus, resp)
}

// --- lookup ---

func (h *handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	phrase := r.URL.Query().Get("q")
	if phrase == "" {
		writeError(w, http.StatusBadRequest, "missing q parameter")
		return
	}
	h.serve(w, r, h.eps.lookup, &lookupReq{Phrase: phrase, Filter: parseFilter(r)}, http.StatusOK)
}

type httpBatchRequest struct {
	Phrases       []string `json:"phrases"`
	Bras          string   `json:"bras,omitempty"`
	Ville         string   `json:"ville,omitempty"`
	TypeRecherche string   `json:"type_recherche,omitempty"`
}

func (h *handler) handleLookupBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024) // 64 KiB max
	var req httpBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	h.serve(w, r, h.eps.lookupBatch, &batchReq{
		Phrases: req.Phrases,
		Filter:  lookup.Filter{Bras: req.Bras, Ville: req.Ville, TypeRecherche: req.TypeRecherche},
	}, http.StatusOK)
}

// --- resolve ---

func (h *handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	n := 0
	if v := r.URL.Query().Get("n"); v != "" {
		var err error
		if n, err = strconv.Atoi(v); err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid n parameter")
			return
		}
	}
	h.serve(w, r, h.eps.resolve, &resolveReq{Word: r.PathValue("word"), N: n}, http.StatusOK)
}

// --- live search and facets ---

func (h *handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.eps.search, &searchReq{Query: r.URL.Query().Get("q"), Filter: parseFilter(r)}, http.StatusOK)
}

func (h *handler) handleArms(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.eps.arms, nil, http.StatusOK)
}

func (h *handler) handleCities(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.eps.cities, &citiesReq{Bras: r.PathValue("bras")}, http.StatusOK)
}

// --- route records ---

func (h *handler) handleListRoutes(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.eps.listRoutes, nil, http.StatusOK)
}

func (h *handler) handleGetRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.serve(w, r, h.eps.getRoute, &routeIDReq{ID: id}, http.StatusOK)
}

func (h *handler) handleAddRoute(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	h.serve(w, r, h.eps.addRoute, &routeWriteReq{Record: rec}, http.StatusCreated)
}

func (h *handler) handleUpdateRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	h.serve(w, r, h.eps.updateRoute, &routeWriteReq{ID: id, Record: rec}, http.StatusOK)
}

func (h *handler) handleDeleteRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.serve(w, r, h.eps.deleteRoute, &routeIDReq{ID: id}, http.StatusOK)
}

// --- spreadsheet import / export ---

func (h *handler) handleImport(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		source = "upload"
	}
	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	h.serve(w, r, h.eps.importSheet, &importReq{Source: source, Body: body}, http.StatusOK)
}

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="tournees.csv"`)
	if err := h.deps.Importer.Export(r.Context(), w); err != nil {
		h.deps.logger().Error("export failed", "error", err)
	}
}

// --- health ---

type healthResponse struct {
	Status     string        `json:"status"`
	Records    int           `json:"records"`
	Tokens     int           `json:"tokens"`
	LastImport *route.Import `json:"last_import,omitempty"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := h.deps.Registry.Stats()
	resp := healthResponse{Status: "ok", Records: st.Records, Tokens: st.Tokens}
	if imp, ok, err := h.deps.Store.LastImport(r.Context()); err == nil && ok {
		resp.LastImport = &imp
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- helpers ---

func parseFilter(r *http.Request) lookup.Filter {
	q := r.URL.Query()
	return lookup.Filter{Bras: q.Get("bras"), Ville: q.Get("ville"), TypeRecherche: q.Get("type")}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid route id")
		return 0, false
	}
	return id, true
}

func decodeRecord(w http.ResponseWriter, r *http.Request) (route.Record, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 16*1024)
	var rec route.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return route.Record{}, false
	}
	return rec, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalid), errors.Is(err, importer.ErrInvalidSheet):
		return http.StatusBadRequest
	case errors.Is(err, route.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// securityHeaders adds the standard hardening headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
