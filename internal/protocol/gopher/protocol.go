package gopher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// DefaultMaxLineLength bounds the selector and its extra, each on its own.
	DefaultMaxLineLength = 512

	// defaultReadChunkSize is deliberately tiny: the lexer consumes exactly the
	// request line and nothing after it.
	defaultReadChunkSize = 1

	// maxEmptyReads guards against readers that keep returning (0, nil).
	maxEmptyReads = 100

	terminator = ".\r\n"
)

// fieldReplacer keeps descriptions and selectors from breaking the TAB/CRLF framing.
var fieldReplacer = strings.NewReplacer("\t", " ", "\r", " ", "\n", " ")

// Protocol reads one selector from and writes one response to a connection.
//
// A Protocol carries lexer state and a pending byte queue. Create one per
// connection with New and never share it.
type Protocol struct {
	extAddr    *ExternalAddr
	maxLineLen int
	chunkSize  int

	state   state
	pending []byte
	builder selectorBuilder
}

// New returns a Protocol that advertises extAddr in menu lines and rejects
// selectors longer than maxLineLen bytes. A non-positive maxLineLen selects
// DefaultMaxLineLength.
func New(extAddr *ExternalAddr, maxLineLen int) *Protocol {
	if maxLineLen <= 0 {
		maxLineLen = DefaultMaxLineLength
	}
	return &Protocol{
		extAddr:    extAddr,
		maxLineLen: maxLineLen,
		chunkSize:  defaultReadChunkSize,
		state:      stateIdle,
		builder:    newSelectorBuilder(maxLineLen),
	}
}

// SetReadChunkSize changes how many bytes are requested from the connection per read.
func (p *Protocol) SetReadChunkSize(n int) {
	if n > 0 {
		p.chunkSize = n
	}
}

// MaxLineLength returns the configured selector bound.
func (p *Protocol) MaxLineLength() int {
	return p.maxLineLen
}

// Read consumes bytes from r up to and including the first CRLF and returns
// the parsed selector.
//
// Returns:
//   - ErrLineTooBig if the path or extra exceeds the maximum line length
//   - ErrParseLine if the path or extra is not valid UTF-8
//   - ErrUnfinishedBusiness if r reaches EOF before CRLF
//   - ErrIO wrapping any other read failure (including deadline expiry)
func (p *Protocol) Read(r io.Reader) (Selector, error) {
	buf := make([]byte, p.chunkSize)

	for {
		tok, ok, err := p.nextToken(r, buf)
		if err != nil {
			return Selector{}, err
		}
		if !ok {
			return Selector{}, ErrUnfinishedBusiness
		}

		switch tok.kind {
		case tokenPath:
			if err := p.builder.pushPath(tok.b); err != nil {
				return Selector{}, err
			}
		case tokenExtra:
			if err := p.builder.pushExtra(tok.b); err != nil {
				return Selector{}, err
			}
		case tokenNewline:
			return p.builder.build()
		}
	}
}

// nextToken drains the pending queue through the lexer, reading another chunk
// from r whenever the queue runs dry. ok is false once r is exhausted.
func (p *Protocol) nextToken(r io.Reader, buf []byte) (tok token, ok bool, err error) {
	emptyReads := 0

	for {
		for len(p.pending) > 0 {
			b := p.pending[0]
			p.pending = p.pending[1:]

			var t token
			p.state, t = step(p.state, b)
			if t.kind != tokenNone {
				return t, true, nil
			}
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			emptyReads = 0
			p.pending = append(p.pending, buf[:n]...)
		}

		switch {
		case readErr == nil && n == 0:
			emptyReads++
			if emptyReads >= maxEmptyReads {
				return token{}, false, fmt.Errorf("read selector: %w: %w", ErrIO, io.ErrNoProgress)
			}
		case errors.Is(readErr, io.EOF):
			if len(p.pending) == 0 {
				return token{}, false, nil
			}
			// Drain what arrived alongside EOF; the next read reports EOF again.
		case readErr != nil:
			return token{}, false, fmt.Errorf("read selector: %w: %w", ErrIO, readErr)
		}
	}
}

// Write renders sel to w and terminates the response with a "." line.
//
// ctx is handed to menus that compute their items on demand. Any write error
// aborts immediately and is returned wrapped in ErrIO; bytes already sent are
// not retracted.
func (p *Protocol) Write(ctx context.Context, w io.Writer, sel Selected) error {
	if sel == nil {
		return errors.New("write response: nothing selected")
	}

	bw := bufio.NewWriter(w)

	if err := p.writeBody(ctx, bw, sel); err != nil {
		return fmt.Errorf("write response: %w: %w", ErrIO, err)
	}
	if _, err := bw.WriteString(terminator); err != nil {
		return fmt.Errorf("write terminator: %w: %w", ErrIO, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush response: %w: %w", ErrIO, err)
	}
	return nil
}

func (p *Protocol) writeBody(ctx context.Context, w *bufio.Writer, sel Selected) error {
	switch s := sel.(type) {
	case Error:
		return p.writeError(w, s.Message)
	case *Error:
		return p.writeError(w, s.Message)
	case Text:
		return p.writeText(w, s.Body)
	case *Text:
		return p.writeText(w, s.Body)
	}

	seq := items(ctx, sel)
	if seq == nil {
		return fmt.Errorf("unsupported response %T", sel)
	}

	for item := range seq {
		if err := p.writeItem(w, item); err != nil {
			return err
		}
	}
	return nil
}

func (p *Protocol) writeError(w *bufio.Writer, message string) error {
	_, err := fmt.Fprintf(w, "%c%s\r\n", ItemTypeError, fieldReplacer.Replace(message))
	return err
}

func (p *Protocol) writeText(w *bufio.Writer, body string) error {
	_, err := fmt.Fprintf(w, "%s\r\n", body)
	return err
}

func (p *Protocol) writeItem(w *bufio.Writer, item MenuItem) error {
	switch it := item.(type) {
	case TextItem:
		return p.writeLink(w, ItemTypeText, it.Desc, it.Path.Val)
	case URLItem:
		return p.writeLink(w, ItemTypeURL, it.Desc, "URL:"+it.URL)
	case SearchItem:
		return p.writeLink(w, ItemTypeSearch, it.Desc, it.Path.Val)
	case InfoItem:
		for line := range strings.SplitSeq(it.Desc, "\n") {
			if _, err := fmt.Fprintf(w, "%c%s\t\t\t\r\n", ItemTypeInfo, fieldReplacer.Replace(line)); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported menu item %T", item)
	}
}

func (p *Protocol) writeLink(w *bufio.Writer, itemType byte, desc, selector string) error {
	_, err := fmt.Fprintf(w, "%c%s\t%s\t%s\t%d\r\n",
		itemType,
		fieldReplacer.Replace(desc),
		fieldReplacer.Replace(selector),
		p.extAddr.Host,
		p.extAddr.Port,
	)
	return err
}
