package source

import (
	"context"
	"iter"

	"github.com/marmos91/frogopher/internal/protocol/gopher"
)

// Placeholder lists a text entry that is not served yet. Selecting it falls
// through to the registry's not found response.
type Placeholder struct {
	path gopher.Path
	desc string
}

// NewPlaceholder returns a Placeholder advertising path.
func NewPlaceholder(path, desc string) *Placeholder {
	return &Placeholder{path: gopher.NewPath(path), desc: desc}
}

func (p *Placeholder) Find(context.Context, gopher.Path) (gopher.Selected, bool) {
	return nil, false
}

func (p *Placeholder) MenuItems(context.Context) iter.Seq[gopher.MenuItem] {
	return single(gopher.TextItem{Path: p.path, Desc: p.desc})
}
