// Package lookup answers route queries over an in-memory snapshot of the
// route store: phrase cleaning, fuzzy resolution against the address
// vocabulary, then a substring filter on the records.
package lookup

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
	"github.com/hazyhaar/tournee-registry/pkg/match"
	"github.com/hazyhaar/tournee-registry/pkg/route"
)

// MinSearchLen is the shortest live-search query, in runes.
const MinSearchLen = 2

// maxCandidates is the number of runner-up tokens reported by Lookup.
const maxCandidates = 3

// Source lists the route records to index.
type Source interface {
	List(ctx context.Context) ([]route.Record, error)
}

// Filter restricts a query to a distribution zone, a city and a search
// type. Empty fields do not restrict.
type Filter struct {
	Bras          string `json:"bras,omitempty"`
	Ville         string `json:"ville,omitempty"`
	TypeRecherche string `json:"type_recherche,omitempty"`
}

func (f Filter) canonical() Filter {
	return Filter{
		Bras:          match.Normalize(f.Bras),
		Ville:         match.Normalize(f.Ville),
		TypeRecherche: strings.TrimSpace(f.TypeRecherche),
	}
}

func (f Filter) accepts(r route.Record) bool {
	return (f.Bras == "" || match.Normalize(r.Bras) == f.Bras) &&
		(f.Ville == "" || match.Normalize(r.Ville) == f.Ville) &&
		(f.TypeRecherche == "" || r.TypeRecherche == f.TypeRecherche)
}

// Lookup outcomes.
const (
	// OutcomeExact: the keyword is itself a vocabulary token.
	OutcomeExact = "exact"
	// OutcomeFuzzy: the keyword was corrected to a nearby token.
	OutcomeFuzzy = "fuzzy"
	// OutcomeLiteral: nothing was close enough; the keyword is searched as is.
	OutcomeLiteral = "literal"
	// OutcomeEmpty: the phrase held no usable word.
	OutcomeEmpty = "empty"
)

// Result is the answer to a phrase lookup.
type Result struct {
	Phrase  string `json:"phrase"`
	Keyword string `json:"keyword"`
	// Term is the substring searched: the resolved token, or Keyword when
	// nothing in the vocabulary was close enough.
	Term       string            `json:"term"`
	Fuzzy      bool              `json:"fuzzy"`
	Outcome    string            `json:"outcome"`
	Confidence float64           `json:"confidence"`
	Matches    []route.Record    `json:"matches"`
	Candidates []match.Candidate `json:"candidates,omitempty"`
}

// Stats describes the loaded snapshot.
type Stats struct {
	Records int `json:"records"`
	Tokens  int `json:"tokens"`
}

type snapshot struct {
	records []route.Record
	vocab   *match.Vocabulary
}

// Registry holds the current snapshot and serves queries. Reload swaps the
// snapshot wholesale; queries never see a partially rebuilt vocabulary.
type Registry struct {
	// reloadMu serializes reloads so a slow List cannot install an older
	// snapshot over a newer one.
	reloadMu sync.Mutex
	mu       sync.RWMutex
	snap     *snapshot
	source   Source
	resolver *match.Resolver
}

// NewRegistry creates an empty registry over source.
func NewRegistry(source Source, resolver *match.Resolver) *Registry {
	return &Registry{
		snap:     &snapshot{vocab: match.BuildVocabulary(nil)},
		source:   source,
		resolver: resolver,
	}
}

// Reload reads every record from the source and rebuilds the vocabulary.
func (r *Registry) Reload(ctx context.Context) error {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	records, err := r.source.List(ctx)
	if err != nil {
		return fmt.Errorf("reload routes: %w", err)
	}
	snap := &snapshot{
		records: records,
		vocab:   match.BuildVocabulary(route.Addresses(records)),
	}

	r.mu.Lock()
	r.snap = snap
	r.mu.Unlock()
	return nil
}

func (r *Registry) current() *snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

// Lookup extracts the keyword of phrase, resolves it against the address
// vocabulary and returns the records whose address contains the resulting
// term. When no token is close enough the keyword itself is searched.
func (r *Registry) Lookup(phrase string, f Filter) *Result {
	snap := r.current()

	res := &Result{
		Phrase:  phrase,
		Keyword: match.ExtractKeyword(phrase),
		Outcome: OutcomeEmpty,
		Matches: []route.Record{},
	}
	if res.Keyword == "" {
		return res
	}

	res.Term = res.Keyword
	res.Outcome = OutcomeLiteral
	if resolved, ok := r.resolver.Resolve(res.Keyword, snap.vocab); ok {
		res.Term = resolved
		res.Fuzzy = resolved != res.Keyword
		res.Outcome = OutcomeExact
		if res.Fuzzy {
			res.Outcome = OutcomeFuzzy
		}
	}
	res.Confidence = matchr.JaroWinkler(res.Keyword, res.Term, false)
	res.Candidates = r.resolver.Rank(res.Keyword, snap.vocab, maxCandidates)
	res.Matches = filterContains(snap.records, res.Term, f.canonical())
	return res
}

// Search is the live search: records whose address contains query,
// without phrase cleaning or fuzzy resolution. Queries shorter than
// MinSearchLen runes match nothing.
func (r *Registry) Search(query string, f Filter) []route.Record {
	q := match.Normalize(query)
	if utf8.RuneCountInString(q) < MinSearchLen {
		return []route.Record{}
	}
	return filterContains(r.current().records, q, f.canonical())
}

// Resolve exposes the resolver over the current vocabulary.
func (r *Registry) Resolve(word string) (string, bool) {
	return r.resolver.Resolve(word, r.current().vocab)
}

// Rank exposes the n best candidates for word over the current vocabulary.
func (r *Registry) Rank(word string, n int) []match.Candidate {
	return r.resolver.Rank(word, r.current().vocab, n)
}

// Threshold returns the acceptance threshold applied to word.
func (r *Registry) Threshold(word string) float64 {
	return r.resolver.Threshold(word)
}

// Arms returns the distinct non-empty distribution zones, sorted.
func (r *Registry) Arms() []string {
	return distinct(r.current().records, func(rec route.Record) (string, bool) {
		return rec.Bras, true
	})
}

// Cities returns the distinct non-empty cities of a distribution zone,
// sorted.
func (r *Registry) Cities(bras string) []string {
	bras = match.Normalize(bras)
	return distinct(r.current().records, func(rec route.Record) (string, bool) {
		return rec.Ville, match.Normalize(rec.Bras) == bras
	})
}

// Stats returns the size of the loaded snapshot.
func (r *Registry) Stats() Stats {
	snap := r.current()
	return Stats{Records: len(snap.records), Tokens: snap.vocab.Len()}
}

func filterContains(records []route.Record, term string, f Filter) []route.Record {
	out := []route.Record{}
	for _, rec := range records {
		if f.accepts(rec) && strings.Contains(match.Normalize(rec.Adresse), term) {
			out = append(out, rec)
		}
	}
	return out
}

func distinct(records []route.Record, pick func(route.Record) (string, bool)) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, rec := range records {
		v, ok := pick(rec)
		if !ok || v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
