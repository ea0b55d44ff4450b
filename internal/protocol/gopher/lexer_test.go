package gopher

import "testing"

func TestStep(t *testing.T) {
	tests := []struct {
		from state
		in   byte
		to   state
		tok  tokenKind
	}{
		{stateIdle, 'a', statePath, tokenPath},
		{stateIdle, '\t', stateExtra, tokenNone},
		{stateIdle, ' ', stateExtra, tokenNone},
		{stateIdle, '\r', stateNewline, tokenNone},
		{statePath, 'a', statePath, tokenPath},
		{statePath, '\t', stateExtra, tokenNone},
		{statePath, '\r', stateNewline, tokenNone},
		{statePath, '\n', statePath, tokenPath},
		{stateExtra, 'a', stateExtra, tokenExtra},
		{stateExtra, '\t', stateExtra, tokenExtra},
		{stateExtra, ' ', stateExtra, tokenExtra},
		{stateExtra, '\r', stateNewline, tokenNone},
		{stateNewline, '\n', stateIdle, tokenNewline},
		{stateNewline, 'x', stateIdle, tokenNone},
		{stateNewline, '\r', stateIdle, tokenNone},
	}

	for _, tt := range tests {
		to, tok := step(tt.from, tt.in)
		if to != tt.to || tok.kind != tt.tok {
			t.Errorf("step(%s, %q) = (%s, %d), want (%s, %d)", tt.from, tt.in, to, tok.kind, tt.to, tt.tok)
		}
		if tok.kind == tokenPath || tok.kind == tokenExtra {
			if tok.b != tt.in {
				t.Errorf("step(%s, %q) carried byte %q", tt.from, tt.in, tok.b)
			}
		}
	}
}

func TestSelectorBuilderReset(t *testing.T) {
	b := newSelectorBuilder(8)
	for _, c := range []byte("/ONE") {
		if err := b.pushPath(c); err != nil {
			t.Fatalf("pushPath: %v", err)
		}
	}
	if _, err := b.build(); err != nil {
		t.Fatalf("build: %v", err)
	}

	sel, err := b.build()
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if !sel.Empty {
		t.Errorf("builder should be empty after build, got %+v", sel)
	}
}
