// This file implements the S operator of spec §6 (`Api.S.search`,
// `search_continue`): a thin layer over spin.Executor that adds
// spincache-backed result caching and cursor pagination on top of one
// plan shared by every return_type variant.
package fabric

import (
	"context"
	"time"

	"github.com/context-fabric/fabric/spin"
	"github.com/context-fabric/fabric/spincache"
)

// S is the stateless search operator.
type S struct {
	fab *Fabric
}

// Page is what Search and SearchContinue return: the requested slice of
// a query's results plus a cursor for the next page, if any.
type Page struct {
	Result *spin.Result

	// Cursor is non-empty when more results remain past this page.
	// Pass it to SearchContinue to fetch the next one.
	Cursor string

	// Stale is true only from SearchContinue, when the supplied cursor's
	// handle has expired or was evicted. Per spec §4.6 ("purely
	// opportunistic, miss re-executes"), this is not an error: the
	// caller should re-issue the original Search.
	Stale bool
}

// Search runs template against the compiled corpus. ReturnResults
// searches are cached by (corpus, template, return_type) so a repeated
// identical search, or a page fetched via SearchContinue, doesn't re-run
// the join.
func (s S) Search(ctx context.Context, templateSrc string, opts spin.SearchOptions) (*Page, error) {
	tmpl, err := spin.Parse(templateSrc)
	if err != nil {
		return nil, err
	}

	if opts.Limit < 0 || opts.Offset < 0 {
		return nil, ErrInvalidLimit
	}

	if opts.ReturnType != spin.ReturnResults {
		return s.runUncached(ctx, tmpl, opts)
	}

	key := spincache.Key{CorpusID: s.fab.store.Dir, Template: templateSrc, ReturnType: opts.ReturnType}
	if h, ok := s.fab.cache.Lookup(key); ok {
		return s.page(h, opts.Offset, opts.Limit)
	}

	// The cache holds the full, unwindowed result so later Slice/cursor
	// calls can page past whatever window this particular call asked
	// for; only the returned Page is limited to opts.Offset/opts.Limit.
	fullOpts := opts
	fullOpts.Offset, fullOpts.Limit = 0, 0
	result, err := s.execute(ctx, tmpl, fullOpts)
	if err != nil {
		return nil, err
	}
	h := s.fab.cache.Set(key, result.Tuples)
	return s.page(h, opts.Offset, opts.Limit)
}

// SearchContinue fetches the next page referenced by a cursor previously
// returned from Search or SearchContinue.
func (s S) SearchContinue(cursor string, limit int) (*Page, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}
	c, err := spincache.DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	tuples, hasMore, _, ok := s.fab.cache.Slice(c.HandleID, c.Offset, limit)
	if !ok {
		return &Page{Stale: true}, nil
	}
	page := &Page{Result: &spin.Result{
		ReturnType: spin.ReturnResults,
		Tuples:     tuples,
		HasMore:    hasMore,
	}}
	if hasMore {
		page.Cursor, err = spincache.EncodeCursor(spincache.Cursor{HandleID: c.HandleID, Offset: c.Offset + len(tuples)})
		if err != nil {
			return nil, err
		}
	}
	return page, nil
}

func (s S) page(h *spincache.Handle, offset, limit int) (*Page, error) {
	tuples, hasMore, _, ok := s.fab.cache.Slice(h.ID, offset, limit)
	if !ok {
		// The handle we just set was immediately evicted (e.g. it alone
		// exceeds capacity); fall back to an uncached one-shot slice.
		tuples, hasMore = sliceTuples(h.Tuples, offset, limit)
	}
	page := &Page{Result: &spin.Result{
		ReturnType: spin.ReturnResults,
		Tuples:     tuples,
		HasMore:    hasMore,
		Count:      int64(len(h.Tuples)),
	}}
	if hasMore {
		cursor, err := spincache.EncodeCursor(spincache.Cursor{HandleID: h.ID, Offset: offset + len(tuples)})
		if err != nil {
			return nil, err
		}
		page.Cursor = cursor
	}
	return page, nil
}

func sliceTuples(tuples []spin.Tuple, offset, limit int) ([]spin.Tuple, bool) {
	if offset >= len(tuples) {
		return []spin.Tuple{}, false
	}
	end := len(tuples)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return tuples[offset:end], end < len(tuples)
}

func (s S) runUncached(ctx context.Context, tmpl *spin.Template, opts spin.SearchOptions) (*Page, error) {
	result, err := s.execute(ctx, tmpl, opts)
	if err != nil {
		return nil, err
	}
	return &Page{Result: result}, nil
}

func (s S) execute(ctx context.Context, tmpl *spin.Template, opts spin.SearchOptions) (*spin.Result, error) {
	if opts.Timeout == 0 {
		opts.Timeout = s.fab.cfg.CancelBudget
	}
	start := time.Now()
	result, err := s.fab.executor.Search(ctx, tmpl, opts)
	matched := matchedCount(result, opts.ReturnType)
	s.fab.cfg.Logger.LogSearch(ctx, returnTypeName(opts.ReturnType), matched, time.Since(start), err)
	s.fab.cfg.Metrics.RecordSearch(returnTypeName(opts.ReturnType), time.Since(start), matched, err)
	return result, err
}

func returnTypeName(rt spin.ReturnType) string {
	switch rt {
	case spin.ReturnResults:
		return "results"
	case spin.ReturnCount:
		return "count"
	case spin.ReturnStatistics:
		return "statistics"
	case spin.ReturnPassages:
		return "passages"
	default:
		return "unknown"
	}
}

func matchedCount(result *spin.Result, rt spin.ReturnType) int {
	if result == nil {
		return 0
	}
	switch rt {
	case spin.ReturnResults, spin.ReturnCount:
		return int(result.Count)
	case spin.ReturnPassages:
		return len(result.Passages)
	case spin.ReturnStatistics:
		var total int64
		for _, h := range result.Statistics {
			total += h.Total
		}
		return int(total)
	default:
		return 0
	}
}
