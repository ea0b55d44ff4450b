package registry

import (
	"context"
	"iter"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/frogopher/internal/protocol/gopher"
	"github.com/marmos91/frogopher/pkg/source"
)

// countingSource records how often it is consulted.
type countingSource struct {
	mu    sync.Mutex
	finds int
	lists int
	items []gopher.MenuItem
}

func (c *countingSource) Find(context.Context, gopher.Path) (gopher.Selected, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finds++
	return nil, false
}

func (c *countingSource) MenuItems(context.Context) iter.Seq[gopher.MenuItem] {
	return func(yield func(gopher.MenuItem) bool) {
		c.mu.Lock()
		c.lists++
		c.mu.Unlock()
		for _, item := range c.items {
			if !yield(item) {
				return
			}
		}
	}
}

func frogRegistry(t *testing.T) *Registry {
	t.Helper()

	reg := NewRegistry()
	require.NoError(t, reg.Register("welcome", source.NewInfo("WELCOME")))
	require.NoError(t, reg.Register("readme", source.NewText("/README", "READ ME", "HELLO FRIEND")))
	require.NoError(t, reg.Register("shadow", source.NewText("/README", "SHADOWED", "NEVER SERVED")))
	require.NoError(t, reg.Register("link", source.NewLink("https://frog.tips", "FROG.TIPS")))
	require.NoError(t, reg.Register("floppy", source.NewPlaceholder("/FLOPPY", "FROG TIPS ON FLOPPY")))
	return reg
}

func TestRegister(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.Register("a", source.NewInfo("A")))
	assert.Error(t, reg.Register("a", source.NewInfo("again")), "duplicate name")
	assert.Error(t, reg.Register("", source.NewInfo("no name")))
	assert.Error(t, reg.Register("nil", nil))

	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, []string{"a"}, reg.Names())

	src, err := reg.Get("a")
	require.NoError(t, err)
	assert.NotNil(t, src)

	_, err = reg.Get("b")
	assert.Error(t, err)
}

func TestFindFirstMatchWins(t *testing.T) {
	reg := frogRegistry(t)

	sel := reg.Find(context.Background(), gopher.NewPath("/README"))
	assert.Equal(t, gopher.Text{Body: "HELLO FRIEND"}, sel)
}

func TestFindNotFound(t *testing.T) {
	reg := frogRegistry(t)

	for _, p := range []string{"/NOPE", "/FLOPPY", "https://frog.tips"} {
		sel := reg.Find(context.Background(), gopher.NewPath(p))
		assert.Equal(t, gopher.Error{Message: "FROG NOT FOUND: " + p}, sel)
	}

	assert.Equal(t,
		gopher.Error{Message: "FROG NOT FOUND: /NOPE"},
		NewRegistry().Find(context.Background(), gopher.NewPath("/NOPE")))
}

func TestFindStopsAtFirstMatch(t *testing.T) {
	before := &countingSource{}
	after := &countingSource{}

	reg := NewRegistry()
	require.NoError(t, reg.Register("before", before))
	require.NoError(t, reg.Register("readme", source.NewText("/README", "READ ME", "HI")))
	require.NoError(t, reg.Register("after", after))

	reg.Find(context.Background(), gopher.NewPath("/README"))
	assert.Equal(t, 1, before.finds)
	assert.Equal(t, 0, after.finds)

	reg.Find(context.Background(), gopher.NewPath("/NOPE"))
	assert.Equal(t, 2, before.finds)
	assert.Equal(t, 1, after.finds)
}

func TestItemsOrder(t *testing.T) {
	reg := frogRegistry(t)

	want := []gopher.MenuItem{
		gopher.InfoItem{Desc: "WELCOME"},
		gopher.TextItem{Path: gopher.NewPath("/README"), Desc: "READ ME"},
		gopher.TextItem{Path: gopher.NewPath("/README"), Desc: "SHADOWED"},
		gopher.URLItem{URL: "https://frog.tips", Desc: "FROG.TIPS"},
		gopher.TextItem{Path: gopher.NewPath("/FLOPPY"), Desc: "FROG TIPS ON FLOPPY"},
	}

	for range 3 {
		assert.Equal(t, want, slices.Collect(reg.Items(context.Background())))
	}
}

func TestItemsLazy(t *testing.T) {
	first := &countingSource{items: []gopher.MenuItem{gopher.InfoItem{Desc: "1"}, gopher.InfoItem{Desc: "2"}}}
	second := &countingSource{items: []gopher.MenuItem{gopher.InfoItem{Desc: "3"}}}

	reg := NewRegistry()
	require.NoError(t, reg.Register("first", first))
	require.NoError(t, reg.Register("second", second))

	for item := range reg.Items(context.Background()) {
		assert.Equal(t, gopher.InfoItem{Desc: "1"}, item)
		break
	}
	assert.Equal(t, 1, first.lists)
	assert.Equal(t, 0, second.lists, "later sources are not consulted after an early stop")

	assert.Len(t, slices.Collect(reg.Items(context.Background())), 3)
	assert.Equal(t, 1, second.lists)
}

func TestRegistryIsMenu(t *testing.T) {
	var menu gopher.Menu = NewRegistry()
	assert.Empty(t, slices.Collect(menu.Items(context.Background())))
}

func TestConcurrentFind(t *testing.T) {
	reg := frogRegistry(t)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				assert.Equal(t, gopher.Text{Body: "HELLO FRIEND"}, reg.Find(context.Background(), gopher.NewPath("/README")))
			} else {
				assert.Len(t, slices.Collect(reg.Items(context.Background())), 5)
			}
		}(i)
	}
	wg.Wait()
}

func TestFreeze(t *testing.T) {
	reg := frogRegistry(t)
	assert.False(t, reg.Frozen())

	reg.Freeze()
	reg.Freeze()
	assert.True(t, reg.Frozen())

	err := reg.Register("late", source.NewInfo("TOO LATE"))
	assert.ErrorIs(t, err, ErrFrozen)
	assert.Len(t, reg.Names(), 5, "a frozen registry keeps its sources")

	assert.Equal(t, gopher.Text{Body: "HELLO FRIEND"}, reg.Find(context.Background(), gopher.NewPath("/README")))
	assert.Len(t, slices.Collect(reg.Items(context.Background())), 5)
}

func TestConcurrentFindFrozen(t *testing.T) {
	reg := frogRegistry(t)
	reg.Freeze()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, gopher.Text{Body: "HELLO FRIEND"}, reg.Find(context.Background(), gopher.NewPath("/README")))
			assert.Len(t, slices.Collect(reg.Items(context.Background())), 5)
		}()
	}
	wg.Wait()
}
