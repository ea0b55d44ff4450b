package source

import (
	"context"
	"iter"

	"github.com/marmos91/frogopher/internal/protocol/gopher"
)

// Info contributes a non-selectable banner to the menu. It never matches a path.
type Info struct {
	desc string
}

// NewInfo returns an Info source. desc may contain newlines.
func NewInfo(desc string) *Info {
	return &Info{desc: desc}
}

func (i *Info) Find(context.Context, gopher.Path) (gopher.Selected, bool) {
	return nil, false
}

func (i *Info) MenuItems(context.Context) iter.Seq[gopher.MenuItem] {
	return single(gopher.InfoItem{Desc: i.desc})
}
