package gopher

import (
	"fmt"
	"unicode/utf8"
)

const (
	cr    byte = '\r'
	lf    byte = '\n'
	tab   byte = '\t'
	space byte = ' '
)

type state int

const (
	stateIdle state = iota
	statePath
	stateExtra
	stateNewline
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case statePath:
		return "path"
	case stateExtra:
		return "extra"
	case stateNewline:
		return "newline"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type tokenKind int

const (
	tokenNone tokenKind = iota
	tokenPath
	tokenExtra
	tokenNewline
)

type token struct {
	kind tokenKind
	b    byte
}

// step is the transition function of the request line lexer.
//
// A CR not followed by LF is absorbed together with the byte after it and the
// lexer falls back to idle, so a stray CR never fails a request.
func step(s state, b byte) (state, token) {
	switch s {
	case stateIdle, statePath:
		switch b {
		case cr:
			return stateNewline, token{}
		case tab, space:
			return stateExtra, token{}
		default:
			return statePath, token{kind: tokenPath, b: b}
		}
	case stateExtra:
		if b == cr {
			return stateNewline, token{}
		}
		return stateExtra, token{kind: tokenExtra, b: b}
	case stateNewline:
		if b == lf {
			return stateIdle, token{kind: tokenNewline}
		}
		return stateIdle, token{}
	default:
		return stateIdle, token{}
	}
}

// selectorBuilder accumulates path and extra bytes for one request line.
type selectorBuilder struct {
	maxLineLen int
	path       []byte
	extra      []byte
}

func newSelectorBuilder(maxLineLen int) selectorBuilder {
	return selectorBuilder{maxLineLen: maxLineLen}
}

func (b *selectorBuilder) pushPath(c byte) error {
	return b.push(&b.path, c)
}

func (b *selectorBuilder) pushExtra(c byte) error {
	return b.push(&b.extra, c)
}

func (b *selectorBuilder) push(buf *[]byte, c byte) error {
	if len(*buf) >= b.maxLineLen {
		return fmt.Errorf("selector exceeds %d bytes: %w", b.maxLineLen, ErrLineTooBig)
	}
	*buf = append(*buf, c)
	return nil
}

// build turns the accumulated bytes into a Selector and resets the buffers.
func (b *selectorBuilder) build() (Selector, error) {
	defer b.reset()

	if len(b.path) == 0 {
		return EmptySelector(), nil
	}

	if !utf8.Valid(b.path) || !utf8.Valid(b.extra) {
		return Selector{}, fmt.Errorf("decode selector: %w", ErrParseLine)
	}

	return PathSelector(Path{
		Val:   string(b.path),
		Extra: string(b.extra),
	}), nil
}

func (b *selectorBuilder) reset() {
	b.path = b.path[:0]
	b.extra = b.extra[:0]
}
