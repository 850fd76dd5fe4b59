// Package inject splices fixed payloads into function bodies: no-op dead
// code and a debugger check at the entry of main.
package inject

import (
	"math/rand/v2"
	"strings"

	"gomod.pri/cobf/lexer"
	"gomod.pri/cobf/reserved"
)

// DefaultBudget is how many function bodies receive a dead-code snippet.
const DefaultBudget = 4

// Registry classifies keywords in injected text and learns the names it uses.
type Registry interface {
	lexer.KeywordSet
	Preserve(names ...string)
}

type snippet struct {
	c, cpp string
	needs  int // index of the snippet that declares what this one reads, -1 for none
}

var deadCodePool = []snippet{
	{
		c:     "volatile int _dummy1 = rand() % 100;",
		cpp:   "volatile int _dummy1 = std::rand() % 100;",
		needs: -1,
	},
	{
		c:     "volatile int _dummy2 = (int)(time(NULL) & 0xFF);",
		cpp:   "volatile int _dummy2 = (int)(std::time(nullptr) & 0xFF);",
		needs: -1,
	},
	{
		c:     "if (_dummy1 > 200) { /* unreachable */ }",
		cpp:   "if (_dummy1 > 200) { /* unreachable */ }",
		needs: 0,
	},
	{
		c:     "for (int _i = 0; _i < 0; ++_i) { _dummy2++; }",
		cpp:   "for (int _i = 0; _i < 0; ++_i) { _dummy2++; }",
		needs: 1,
	},
}

func (s snippet) text(d reserved.Dialect) string {
	if d == reserved.DialectCPP {
		return s.cpp
	}
	return s.c
}

// DeadCodeHeaders is the include block the pool relies on.
func DeadCodeHeaders(d reserved.Dialect) string {
	if d == reserved.DialectCPP {
		return "#include <cstdlib>\n#include <ctime>\n"
	}
	return "#include <stdlib.h>\n#include <time.h>\n"
}

// DeadCode splices one randomly chosen pool snippet after the opening brace
// of up to k function bodies and returns how many bodies it touched.
func DeadCode(tokens []lexer.Token, d reserved.Dialect, rng *rand.Rand, reg Registry, k int) ([]lexer.Token, int, error) {
	targets := bodyOpens(tokens, k)
	eol := lexer.LineEnding(tokens)

	// splice from the back so earlier indices stay valid
	picks := make([]int, len(targets))
	for i := range targets {
		picks[i] = rng.IntN(len(deadCodePool))
	}
	for i := len(targets) - 1; i >= 0; i-- {
		frag, err := fragment(snippetLines(d, picks[i]), eol, reg)
		if err != nil {
			return nil, 0, err
		}
		at := targets[i] + 1
		tokens = lexer.Splice(tokens, at, at, frag)
	}
	return tokens, len(targets), nil
}

func snippetLines(d reserved.Dialect, pick int) []string {
	s := deadCodePool[pick]
	if s.needs < 0 {
		return []string{s.text(d)}
	}
	return []string{deadCodePool[s.needs].text(d), s.text(d)}
}

// fragment lexes injected statements, one per indented line, and preserves
// every identifier they mention.
func fragment(lines []string, eol string, reg Registry) ([]lexer.Token, error) {
	indent := eol + "    "
	toks, err := lexer.Synthesize(indent+strings.Join(lines, indent), reg)
	if err != nil {
		return nil, err
	}
	for _, t := range toks {
		if t.Kind == lexer.KindIdent {
			reg.Preserve(t.Lexeme)
		}
	}
	return toks, nil
}

// bodyOpens finds the first k braces that open a function body: a '{' at
// file scope right after the ')' closing a parameter list.
func bodyOpens(tokens []lexer.Token, k int) []int {
	var out []int
	braces, parens := 0, 0
	for i := 0; i < len(tokens) && len(out) < k; i++ {
		t := tokens[i]
		if t.Kind != lexer.KindPunct {
			continue
		}
		switch t.Lexeme {
		case "(":
			parens++
		case ")":
			parens--
		case "}":
			braces--
		case "{":
			if braces == 0 && parens == 0 && isParamListEnd(tokens, lexer.PrevSignificant(tokens, i)) {
				out = append(out, i)
			}
			braces++
		}
	}
	return out
}

// isParamListEnd reports whether tokens[p] is a ')' whose '(' follows a
// name, another ')' or a lambda introducer. Compound literals such as
// (int[]){1, 2} are excluded.
func isParamListEnd(tokens []lexer.Token, p int) bool {
	if p < 0 || !tokens[p].IsPunct(")") {
		return false
	}
	open := matchOpen(tokens, p)
	if open < 0 {
		return false
	}
	before := lexer.PrevSignificant(tokens, open)
	if before < 0 {
		return false
	}
	b := tokens[before]
	return b.Kind == lexer.KindIdent || b.IsPunct(")") || b.IsPunct("]")
}

func matchOpen(tokens []lexer.Token, end int) int {
	depth := 0
	for j := end; j >= 0; j-- {
		t := tokens[j]
		if t.Kind != lexer.KindPunct {
			continue
		}
		switch t.Lexeme {
		case ")":
			depth++
		case "(":
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}
