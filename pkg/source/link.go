package source

import (
	"context"
	"iter"

	"github.com/marmos91/frogopher/internal/protocol/gopher"
)

// Link advertises an external URL. It never matches a path.
type Link struct {
	url  string
	desc string
}

// NewLink returns a Link source pointing at url.
func NewLink(url, desc string) *Link {
	return &Link{url: url, desc: desc}
}

func (l *Link) Find(context.Context, gopher.Path) (gopher.Selected, bool) {
	return nil, false
}

func (l *Link) MenuItems(context.Context) iter.Seq[gopher.MenuItem] {
	return single(gopher.URLItem{URL: l.url, Desc: l.desc})
}
