package source

import (
	"context"
	"fmt"
	"iter"
	"os"

	"github.com/marmos91/frogopher/internal/protocol/gopher"
)

// Text serves a static document at one exact selector.
type Text struct {
	path gopher.Path
	desc string
	body string
}

// NewText returns a Text source serving body at path.
func NewText(path, desc, body string) *Text {
	return &Text{
		path: gopher.NewPath(path),
		desc: desc,
		body: body,
	}
}

// NewTextFromFile returns a Text source whose body is read from file once.
func NewTextFromFile(path, desc, file string) (*Text, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read text source %q: %w", file, err)
	}
	return NewText(path, desc, string(data)), nil
}

// Find matches only the exact selector, ignoring any search text.
func (t *Text) Find(_ context.Context, path gopher.Path) (gopher.Selected, bool) {
	if path.Val != t.path.Val {
		return nil, false
	}
	return gopher.Text{Body: t.body}, true
}

func (t *Text) MenuItems(context.Context) iter.Seq[gopher.MenuItem] {
	return single(gopher.TextItem{Path: t.path, Desc: t.desc})
}
