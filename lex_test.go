package calc

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLex(t *testing.T) {
	cases := []struct {
		src    string
		tokens []lexToken
	}{
		// spaces
		{"", []lexToken{{kind: tokenEOF, pos: 1}}},
		{" \t \r\n ", []lexToken{{kind: tokenEOF, pos: 7}}},
		// numbers
		{"0", []lexToken{{text: "0", kind: tokenNum, pos: 1}, {kind: tokenEOF, pos: 2}}},
		{"9876543210", []lexToken{{text: "9876543210", kind: tokenNum, pos: 1}, {kind: tokenEOF, pos: 11}}},
		{"1 0", []lexToken{{text: "1", kind: tokenNum, pos: 1}, {text: "0", kind: tokenNum, pos: 3}, {kind: tokenEOF, pos: 4}}},
		{"1.0", []lexToken{{text: "1.0", kind: tokenNum, pos: 1}, {kind: tokenEOF, pos: 4}}},
		{".5", []lexToken{{text: ".5", kind: tokenNum, pos: 1}, {kind: tokenEOF, pos: 3}}},
		{"5.", []lexToken{{text: "5.", kind: tokenNum, pos: 1}, {kind: tokenEOF, pos: 3}}},
		{"-1", []lexToken{{text: "-", kind: tokenOp, pos: 1}, {text: "1", kind: tokenNum, pos: 2}, {kind: tokenEOF, pos: 3}}},
		// identifiers
		{"e", []lexToken{{text: "e", kind: tokenIdent, pos: 1}, {kind: tokenEOF, pos: 2}}},
		{"e1", []lexToken{{text: "e1", kind: tokenIdent, pos: 1}, {kind: tokenEOF, pos: 3}}},
		{"_1234_", []lexToken{{text: "_1234_", kind: tokenIdent, pos: 1}, {kind: tokenEOF, pos: 7}}},
		{"π", []lexToken{{text: "π", kind: tokenIdent, pos: 1}, {kind: tokenEOF, pos: 2}}},
		{"f(", []lexToken{{text: "f", kind: tokenIdent, pos: 1}, {text: "(", kind: tokenOpen, pos: 2}, {kind: tokenEOF, pos: 3}}},
		// operators
		{"a--b", []lexToken{
			{text: "a", kind: tokenIdent, pos: 1},
			{text: "-", kind: tokenOp, pos: 2},
			{text: "-", kind: tokenOp, pos: 3},
			{text: "b", kind: tokenIdent, pos: 4},
			{kind: tokenEOF, pos: 5},
		}},
		{"+-*/%", []lexToken{
			{text: "+", kind: tokenOp, pos: 1},
			{text: "-", kind: tokenOp, pos: 2},
			{text: "*", kind: tokenOp, pos: 3},
			{text: "/", kind: tokenOp, pos: 4},
			{text: "%", kind: tokenOp, pos: 5},
			{kind: tokenEOF, pos: 6},
		}},
		// assignment and arrows
		{"a = 1", []lexToken{
			{text: "a", kind: tokenIdent, pos: 1},
			{text: "=", kind: tokenAssign, pos: 3},
			{text: "1", kind: tokenNum, pos: 5},
			{kind: tokenEOF, pos: 6},
		}},
		{"a=", []lexToken{{text: "a", kind: tokenIdent, pos: 1}, {text: "=", kind: tokenAssign, pos: 2}, {kind: tokenEOF, pos: 3}}},
		{"f x=>x", []lexToken{
			{text: "f", kind: tokenIdent, pos: 1},
			{text: "x", kind: tokenIdent, pos: 3},
			{text: "=>", kind: tokenArrow, pos: 4},
			{text: "x", kind: tokenIdent, pos: 6},
			{kind: tokenEOF, pos: 7},
		}},
		{"= >", []lexToken{{text: "=", kind: tokenAssign, pos: 1}}},
		// brackets
		{"()", []lexToken{{text: "(", kind: tokenOpen, pos: 1}, {text: ")", kind: tokenClose, pos: 2}, {kind: tokenEOF, pos: 3}}},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			scan := lex(strings.NewReader(c.src))
			for _, want := range c.tokens {
				got, err := scan.next()
				if err != nil {
					t.Fatalf("scanning %q: want %v, got error %v", c.src, want, err)
				}
				if got != want {
					t.Errorf("scanning %q: want %v, got %v", c.src, want, got)
				}
			}
		})
	}
}

func TestLexErrors(t *testing.T) {
	cases := []struct {
		src  string
		want LexError
	}{
		{"$", LexError{Text: "$", Col: 1}},
		{"1 $ 2", LexError{Text: "$", Col: 3}},
		{"a & b", LexError{Text: "&", Col: 3}},
		{"1a", LexError{Text: "1a", Kind: "number", Col: 2}},
		{"2x", LexError{Text: "2x", Kind: "number", Col: 2}},
		{"1_", LexError{Text: "1_", Kind: "number", Col: 2}},
		{"1.2.3", LexError{Text: "1.2.", Kind: "number", Col: 4}},
		{"..", LexError{Text: "..", Kind: "number", Col: 2}},
		{".", LexError{Text: ".", Kind: "number", Col: 1}},
		{"3 + .", LexError{Text: ".", Kind: "number", Col: 5}},
		{"[1]", LexError{Text: "[", Col: 1}},
		{"^", LexError{Text: "^", Col: 1}},
		{"2 ^ 3", LexError{Text: "^", Col: 3}},
		{"0.5 ^ 4294967296.5", LexError{Text: "^", Col: 5}},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			_, err := tokenize(strings.NewReader(c.src))
			var got *LexError
			if !errors.As(err, &got) {
				t.Fatalf("want LexError, got %v", err)
			}
			if diff := cmp.Diff(c.want, *got); diff != "" {
				t.Errorf("wrong error (-want +got):\n%s", diff)
			}
			if got.Pos() != c.want.Col {
				t.Errorf("Pos: want %d, got %d", c.want.Col, got.Pos())
			}
		})
	}
}

func TestTokenizeEndsWithEOF(t *testing.T) {
	for _, src := range []string{"", "1", "a = b", "f x => x * 2", "((1)"} {
		toks, err := tokenize(strings.NewReader(src))
		if err != nil {
			t.Errorf("%q: %v", src, err)
			continue
		}
		if len(toks) == 0 || toks[len(toks)-1].kind != tokenEOF {
			t.Errorf("%q: tokens do not end with EOF: %v", src, toks)
		}
		for _, tok := range toks[:len(toks)-1] {
			if tok.kind == tokenEOF {
				t.Errorf("%q: EOF before end: %v", src, toks)
			}
		}
	}
}

func TestIsName(t *testing.T) {
	cases := map[string]bool{
		"x":     true,
		"_":     true,
		"abc_1": true,
		"π":     true,
		"":      false,
		"1x":    false,
		"x y":   false,
		"x-1":   false,
		"=":     false,
	}
	for s, want := range cases {
		if got := IsName(s); got != want {
			t.Errorf("IsName(%q): want %t, got %t", s, want, got)
		}
	}
}
