package gopher

import (
	"context"
	"iter"
	"slices"
)

// Item type prefixes written at the start of each menu line.
const (
	ItemTypeText   byte = '0'
	ItemTypeError  byte = '3'
	ItemTypeSearch byte = '7'
	ItemTypeURL    byte = 'h'
	ItemTypeInfo   byte = 'i'
)

// MenuItem is one entry of a menu listing.
//
// The set of implementations is closed: TextItem, InfoItem, URLItem and SearchItem.
type MenuItem interface {
	// ItemType returns the single byte item type prefix.
	ItemType() byte
}

// TextItem points at a plain text document served by this server.
type TextItem struct {
	Path Path
	Desc string
}

// InfoItem is a non-selectable informational line. Desc may span several lines;
// each one is rendered as a separate wire line.
type InfoItem struct {
	Desc string
}

// URLItem points at an external resource, rendered with the "URL:" selector convention.
type URLItem struct {
	URL  string
	Desc string
}

// SearchItem points at a full text search endpoint served by this server.
type SearchItem struct {
	Path Path
	Desc string
}

func (TextItem) ItemType() byte   { return ItemTypeText }
func (InfoItem) ItemType() byte   { return ItemTypeInfo }
func (URLItem) ItemType() byte    { return ItemTypeURL }
func (SearchItem) ItemType() byte { return ItemTypeSearch }

// Menu is anything that can enumerate itself as menu items.
//
// Items must return a finite sequence that is recomputed on every call.
type Menu interface {
	Items(ctx context.Context) iter.Seq[MenuItem]
}

// Selected is the resolution result written back to the client.
//
// The set of implementations is closed: Error, Text, TempMenu and ForeverMenu.
type Selected interface {
	selected()
}

// Error is rendered as a single type 3 line.
type Error struct {
	Message string
}

// Text is rendered verbatim followed by CRLF.
type Text struct {
	Body string
}

// TempMenu owns a freshly computed listing, such as search results.
type TempMenu struct {
	Items []MenuItem
}

// ForeverMenu references a long-lived listing, such as the root registry,
// without copying it.
type ForeverMenu struct {
	Menu Menu
}

func (Error) selected()       {}
func (Text) selected()        {}
func (TempMenu) selected()    {}
func (ForeverMenu) selected() {}

// items returns the menu items of a listing response, or nil for non-menu values.
func items(ctx context.Context, sel Selected) iter.Seq[MenuItem] {
	switch s := sel.(type) {
	case TempMenu:
		return slices.Values(s.Items)
	case *TempMenu:
		return slices.Values(s.Items)
	case ForeverMenu:
		return s.Menu.Items(ctx)
	case *ForeverMenu:
		return s.Menu.Items(ctx)
	default:
		return nil
	}
}

// SelectedKind returns a short label for logs and metrics.
func SelectedKind(sel Selected) string {
	switch sel.(type) {
	case Error, *Error:
		return "error"
	case Text, *Text:
		return "text"
	case TempMenu, *TempMenu:
		return "temp_menu"
	case ForeverMenu, *ForeverMenu:
		return "menu"
	default:
		return "unknown"
	}
}
