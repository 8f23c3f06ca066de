package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hazyhaar/tournee-registry/pkg/importer"
	"github.com/hazyhaar/tournee-registry/pkg/kit"
	"github.com/hazyhaar/tournee-registry/pkg/lookup"
	"github.com/hazyhaar/tournee-registry/pkg/match"
	"github.com/hazyhaar/tournee-registry/pkg/observe"
	"github.com/hazyhaar/tournee-registry/pkg/route"
)

// Shared request/response types used by both HTTP and MCP transports.

// maxBatch is the largest accepted batch of phrases.
const maxBatch = 100

// defaultCandidates is the number of candidates returned by resolve when the
// caller does not ask for a count.
const defaultCandidates = 5

// errInvalid marks errors caused by the request itself.
var errInvalid = errors.New("invalid request")

// Deps are the services the endpoints operate on. Metrics and Logger may be
// nil.
type Deps struct {
	Store    *route.Store
	Registry *lookup.Registry
	Importer *importer.Importer
	Metrics  *observe.Metrics
	Logger   *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

type lookupReq struct {
	Phrase string
	Filter lookup.Filter
}

type batchReq struct {
	Phrases []string
	Filter  lookup.Filter
}

type batchResponse struct {
	Results []*lookup.Result `json:"results"`
}

type resolveReq struct {
	Word string
	N    int
}

type resolveResponse struct {
	Word       string            `json:"word"`
	Normalized string            `json:"normalized"`
	Resolved   string            `json:"resolved,omitempty"`
	Found      bool              `json:"found"`
	Threshold  float64           `json:"threshold"`
	Candidates []match.Candidate `json:"candidates"`
}

type searchReq struct {
	Query  string
	Filter lookup.Filter
}

type recordsResponse struct {
	Count   int            `json:"count"`
	Records []route.Record `json:"records"`
}

type armsResponse struct {
	Arms []string `json:"arms"`
}

type citiesReq struct {
	Bras string
}

type citiesResponse struct {
	Bras   string   `json:"bras"`
	Cities []string `json:"cities"`
}

type routeIDReq struct {
	ID int64
}

type routeWriteReq struct {
	ID     int64
	Record route.Record
}

type importResponse struct {
	Source  string `json:"source"`
	Rows    int    `json:"rows"`
	Skipped int    `json:"skipped"`
}

type importReq struct {
	Source string
	Body   io.Reader
}

// endpoints builds every kit.Endpoint, wrapped with the logging middleware.
type endpoints struct {
	lookup      kit.Endpoint
	lookupBatch kit.Endpoint
	resolve     kit.Endpoint
	search      kit.Endpoint
	arms        kit.Endpoint
	cities      kit.Endpoint
	listRoutes  kit.Endpoint
	getRoute    kit.Endpoint
	addRoute    kit.Endpoint
	updateRoute kit.Endpoint
	deleteRoute kit.Endpoint
	importSheet kit.Endpoint
}

func newEndpoints(d Deps) *endpoints {
	log := func(name string, ep kit.Endpoint) kit.Endpoint {
		return kit.Logging(d.logger(), name)(ep)
	}
	return &endpoints{
		lookup:      log("lookup", lookupEndpoint(d)),
		lookupBatch: log("lookup_batch", lookupBatchEndpoint(d)),
		resolve:     log("resolve", resolveEndpoint(d)),
		search:      log("search", searchEndpoint(d)),
		arms:        log("arms", armsEndpoint(d)),
		cities:      log("cities", citiesEndpoint(d)),
		listRoutes:  log("list_routes", listRoutesEndpoint(d)),
		getRoute:    log("get_route", getRouteEndpoint(d)),
		addRoute:    log("add_route", addRouteEndpoint(d)),
		updateRoute: log("update_route", updateRouteEndpoint(d)),
		deleteRoute: log("delete_route", deleteRouteEndpoint(d)),
		importSheet: log("import", importEndpoint(d)),
	}
}

func timedLookup(ctx context.Context, d Deps, phrase string, f lookup.Filter) *lookup.Result {
	start := time.Now()
	res := d.Registry.Lookup(phrase, f)
	d.Metrics.RecordLookup(ctx, res.Outcome, kit.GetTransport(ctx), time.Since(start))
	return res
}

func lookupEndpoint(d Deps) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*lookupReq)
		if req.Phrase == "" {
			return nil, fmt.Errorf("%w: missing phrase", errInvalid)
		}
		return timedLookup(ctx, d, req.Phrase, req.Filter), nil
	}
}

func lookupBatchEndpoint(d Deps) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*batchReq)
		if len(req.Phrases) == 0 {
			return nil, fmt.Errorf("%w: phrases array is empty", errInvalid)
		}
		if len(req.Phrases) > maxBatch {
			return nil, fmt.Errorf("%w: too many phrases (max %d, got %d)", errInvalid, maxBatch, len(req.Phrases))
		}
		results := make([]*lookup.Result, len(req.Phrases))
		for i, phrase := range req.Phrases {
			results[i] = timedLookup(ctx, d, phrase, req.Filter)
		}
		return batchResponse{Results: results}, nil
	}
}

func resolveEndpoint(d Deps) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*resolveReq)
		if req.Word == "" {
			return nil, fmt.Errorf("%w: missing word", errInvalid)
		}
		n := req.N
		if n <= 0 {
			n = defaultCandidates
		}
		resolved, ok := d.Registry.Resolve(req.Word)
		cands := d.Registry.Rank(req.Word, n)
		if cands == nil {
			cands = []match.Candidate{}
		}
		return resolveResponse{
			Word:       req.Word,
			Normalized: match.Normalize(req.Word),
			Resolved:   resolved,
			Found:      ok,
			Threshold:  d.Registry.Threshold(match.Normalize(req.Word)),
			Candidates: cands,
		}, nil
	}
}

func searchEndpoint(d Deps) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*searchReq)
		records := d.Registry.Search(req.Query, req.Filter)
		return recordsResponse{Count: len(records), Records: records}, nil
	}
}

func armsEndpoint(d Deps) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		return armsResponse{Arms: d.Registry.Arms()}, nil
	}
}

func citiesEndpoint(d Deps) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*citiesReq)
		return citiesResponse{Bras: match.Normalize(req.Bras), Cities: d.Registry.Cities(req.Bras)}, nil
	}
}

func listRoutesEndpoint(d Deps) kit.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		records, err := d.Store.List(ctx)
		if err != nil {
			return nil, err
		}
		return recordsResponse{Count: len(records), Records: records}, nil
	}
}

func getRouteEndpoint(d Deps) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		return d.Store.Get(ctx, request.(*routeIDReq).ID)
	}
}

func validRecord(r route.Record) error {
	if match.Normalize(r.Adresse) == "" {
		return fmt.Errorf("%w: adresse is required", errInvalid)
	}
	return nil
}

func addRouteEndpoint(d Deps) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*routeWriteReq)
		if err := validRecord(req.Record); err != nil {
			return nil, err
		}
		rec, err := d.Store.Add(ctx, req.Record)
		if err != nil {
			return nil, err
		}
		return rec, reload(ctx, d)
	}
}

func updateRouteEndpoint(d Deps) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*routeWriteReq)
		if err := validRecord(req.Record); err != nil {
			return nil, err
		}
		rec, err := d.Store.Update(ctx, req.ID, req.Record)
		if err != nil {
			return nil, err
		}
		return rec, reload(ctx, d)
	}
}

func deleteRouteEndpoint(d Deps) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		if err := d.Store.Delete(ctx, request.(*routeIDReq).ID); err != nil {
			return nil, err
		}
		return nil, reload(ctx, d)
	}
}

func importEndpoint(d Deps) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*importReq)
		res, err := d.Importer.ImportReader(ctx, req.Source, req.Body)
		d.Metrics.RecordImport(ctx, err)
		if err != nil {
			return nil, err
		}
		if err := reload(ctx, d); err != nil {
			return nil, err
		}
		return importResponse{Source: req.Source, Rows: len(res.Records), Skipped: res.Skipped}, nil
	}
}

// reload refreshes the registry after a store mutation.
func reload(ctx context.Context, d Deps) error {
	if err := d.Registry.Reload(ctx); err != nil {
		return err
	}
	st := d.Registry.Stats()
	d.Metrics.RecordSnapshot(ctx, st.Records, st.Tokens)
	return nil
}
