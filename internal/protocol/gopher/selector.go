package gopher

// Path is a parsed selector: the selector string itself plus the optional
// search text that followed the first TAB or SPACE on the request line.
//
// An empty Extra means the client sent no search text. Path values are
// comparable; two paths are equal when both Val and Extra match.
type Path struct {
	Val   string
	Extra string
}

// NewPath returns a Path with no extra.
func NewPath(val string) Path {
	return Path{Val: val}
}

// HasExtra reports whether the client supplied search text.
func (p Path) HasExtra() bool {
	return p.Extra != ""
}

// String returns the selector string.
func (p Path) String() string {
	return p.Val
}

// Selector is the result of reading one request line.
//
// Exactly one of the following holds:
//   - Empty is true: the client sent a bare CRLF and wants the root menu
//   - Empty is false: Path.Val is non-empty
type Selector struct {
	Path  Path
	Empty bool
}

// EmptySelector returns the selector for a root menu request.
func EmptySelector() Selector {
	return Selector{Empty: true}
}

// PathSelector returns the selector for path.
func PathSelector(path Path) Selector {
	return Selector{Path: path}
}

// Kind returns a short label for logs and metrics.
func (s Selector) Kind() string {
	switch {
	case s.Empty:
		return "root"
	case s.Path.HasExtra():
		return "search"
	default:
		return "path"
	}
}
