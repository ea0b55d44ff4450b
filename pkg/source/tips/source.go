// Package tips serves the frog.tips archive over Gopher.
//
// Selectors:
//
//	/TIP/<n>              one tip as a text document
//	/TIP/SEARCH[\t<text>] tips matching text, as a menu of /TIP/<n> links
//
// The root menu lists every tweeted tip in archive order, followed by a search entry.
package tips

import (
	"context"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/marmos91/frogopher/internal/logger"
	"github.com/marmos91/frogopher/internal/protocol/gopher"
	"github.com/marmos91/frogopher/pkg/metrics"
)

const (
	// TipPrefix starts every numbered tip selector.
	TipPrefix = "/TIP/"

	// SearchPath starts every search selector.
	SearchPath = "/TIP/SEARCH"

	searchDesc = "SEARCH FROG TIPS"
)

// Source is the remote tip archive.
type Source struct {
	name    string
	client  *Client
	metrics metrics.SourceMetrics
}

// New returns a Source backed by client. name labels log lines and metrics;
// a nil m disables metrics.
func New(name string, client *Client, m metrics.SourceMetrics) *Source {
	if m == nil {
		m = metrics.NewNoopSourceMetrics()
	}
	return &Source{name: name, client: client, metrics: m}
}

// Find serves /TIP/<n> and any selector starting with /TIP/SEARCH.
//
// Remote failures are logged and reported as not found.
func (s *Source) Find(ctx context.Context, path gopher.Path) (gopher.Selected, bool) {
	if strings.HasPrefix(path.Val, SearchPath) {
		return s.search(ctx, path.Extra)
	}

	n, ok := tipNumber(path.Val)
	if !ok {
		return nil, false
	}

	start := time.Now()
	tip, err := s.client.Tip(ctx, n)
	s.metrics.ObserveCall(s.name, "get_tip", time.Since(start), err)
	if err != nil {
		logger.Warn("[%s] tip %d: %v", s.name, n, err)
		return nil, false
	}

	return gopher.Text{Body: tip.Tip}, true
}

func (s *Source) search(ctx context.Context, text string) (gopher.Selected, bool) {
	q := Query{Tweeted: true, Approved: true}
	if text != "" {
		q.Tip = &text
	}

	start := time.Now()
	results, err := s.client.Search(ctx, q)
	s.metrics.ObserveCall(s.name, "search", time.Since(start), err)
	if err != nil {
		logger.Warn("[%s] search %q: %v", s.name, text, err)
		return nil, false
	}

	items := make([]gopher.MenuItem, 0, len(results))
	for _, tip := range results {
		items = append(items, tipItem(tip))
	}
	return gopher.TempMenu{Items: items}, true
}

// MenuItems enumerates every tweeted tip in the order the API returns them,
// then a search entry.
// The archive is fetched on each call; a failure yields only the search entry.
func (s *Source) MenuItems(ctx context.Context) iter.Seq[gopher.MenuItem] {
	return func(yield func(gopher.MenuItem) bool) {
		start := time.Now()
		all, err := s.client.Search(ctx, Query{Tweeted: true, Approved: true})
		s.metrics.ObserveCall(s.name, "list", time.Since(start), err)
		if err != nil {
			logger.Warn("[%s] list tips: %v", s.name, err)
		}

		for _, tip := range all {
			if !yield(tipItem(tip)) {
				return
			}
		}

		yield(gopher.SearchItem{Path: gopher.NewPath(SearchPath), Desc: searchDesc})
	}
}

func tipItem(tip Tip) gopher.MenuItem {
	return gopher.TextItem{
		Path: gopher.NewPath(fmt.Sprintf("%s%d", TipPrefix, tip.Number)),
		Desc: fmt.Sprintf("TIP #%d", tip.Number),
	}
}

// tipNumber parses an exact /TIP/<n> selector.
func tipNumber(val string) (uint64, bool) {
	rest, ok := strings.CutPrefix(val, TipPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
