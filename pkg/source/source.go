// Package source defines the content providers that make up the frogopher
// root menu.
//
// A Source answers two questions: "do you serve this path?" (Find) and
// "what do you want listed in the root menu?" (MenuItems). Sources are built
// once at startup and then shared read-only by every connection goroutine,
// so implementations must be safe for concurrent use.
//
// Built-in variants:
//   - Text: a static document served at one exact path
//   - Info: a non-selectable banner line
//   - Link: a hyperlink to an external URL
//   - Placeholder: an advertised entry that is never served
//
// The remote tip archive and the S3 bucket source live in subpackages.
package source

import (
	"context"
	"iter"

	"github.com/marmos91/frogopher/internal/protocol/gopher"
)

// Source can locate content by path and enumerate itself as menu entries.
type Source interface {
	// Find resolves path. The boolean is false when the source does not
	// serve path; callers then try the next source.
	//
	// Find must never fail the connection: remote errors are logged and
	// reported as not found.
	Find(ctx context.Context, path gopher.Path) (gopher.Selected, bool)

	// MenuItems returns the entries this source contributes to the root menu.
	// The sequence is recomputed on every call.
	MenuItems(ctx context.Context) iter.Seq[gopher.MenuItem]
}

// single yields exactly one item.
func single(item gopher.MenuItem) iter.Seq[gopher.MenuItem] {
	return func(yield func(gopher.MenuItem) bool) {
		yield(item)
	}
}
