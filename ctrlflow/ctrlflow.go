// Package ctrlflow rewrites braced if/else statements into an equivalent
// switch over a fresh selector variable.
package ctrlflow

import (
	"errors"
	"fmt"

	"gomod.pri/cobf/lexer"
	"gomod.pri/cobf/xerror"
)

var ErrUnbalanced = errors.New("unbalanced brackets")

// Namer hands out selector names such as _sw4821.
type Namer interface {
	FreshNumbered(prefix string) (string, error)
}

// Registry classifies keywords in the generated text and learns the selector
// names so renaming leaves them alone.
type Registry interface {
	lexer.KeywordSet
	Preserve(names ...string)
}

// span is one matched if statement. Indices are into the token stream;
// elseOpen is -1 when there is no else branch.
type span struct {
	start, end          int
	condOpen, condClose int
	thenOpen, thenClose int
	elseOpen, elseClose int
}

// Rewrite replaces every eligible if statement with
//
//	{ int _swN = (cond) ? 1 : 0; switch (_swN) { case 1: then break; default: else break; } }
//
// working from the last if backwards so nested and else-if statements are
// rewritten before the statements that contain them. It returns the new
// stream and the number of statements rewritten.
func Rewrite(tokens []lexer.Token, namer Namer, reg Registry) ([]lexer.Token, int, error) {
	eol := lexer.LineEnding(tokens)
	total := 0

	for {
		n := 0
		for i := len(tokens) - 1; i >= 0; i-- {
			if !tokens[i].IsKeyword("if") {
				continue
			}
			sp, ok, err := match(tokens, i)
			if err != nil {
				return nil, total, err
			}
			if !ok {
				continue
			}

			repl, err := build(tokens, sp, eol, namer, reg)
			if err != nil {
				return nil, total, err
			}
			tokens = lexer.Splice(tokens, sp.start, sp.end+1, repl)
			n++
		}
		if n == 0 {
			return tokens, total, nil
		}
		total += n
	}
}

func match(tokens []lexer.Token, at int) (span, bool, error) {
	sp := span{start: at, elseOpen: -1, elseClose: -1}

	sp.condOpen = lexer.NextSignificant(tokens, at)
	if sp.condOpen < 0 || !tokens[sp.condOpen].IsPunct("(") {
		// if constexpr, if consteval
		return sp, false, nil
	}
	sp.condClose = lexer.MatchClose(tokens, sp.condOpen)
	if sp.condClose < 0 {
		return sp, false, unbalanced(tokens[at])
	}

	sp.thenOpen = lexer.NextSignificant(tokens, sp.condClose)
	if sp.thenOpen < 0 || !tokens[sp.thenOpen].IsPunct("{") {
		return sp, false, nil
	}
	sp.thenClose = lexer.MatchClose(tokens, sp.thenOpen)
	if sp.thenClose < 0 {
		return sp, false, unbalanced(tokens[at])
	}
	sp.end = sp.thenClose

	if e := lexer.NextSignificant(tokens, sp.thenClose); e >= 0 && tokens[e].IsKeyword("else") {
		sp.elseOpen = lexer.NextSignificant(tokens, e)
		if sp.elseOpen < 0 || !tokens[sp.elseOpen].IsPunct("{") {
			// unbraced else or an else-if that could not be rewritten
			return sp, false, nil
		}
		sp.elseClose = lexer.MatchClose(tokens, sp.elseOpen)
		if sp.elseClose < 0 {
			return sp, false, unbalanced(tokens[at])
		}
		sp.end = sp.elseClose
	}

	cond := tokens[sp.condOpen+1 : sp.condClose]
	if hasDirective(cond) || declaresInCondition(cond) {
		return sp, false, nil
	}
	for _, body := range [][]lexer.Token{sp.thenBody(tokens), sp.elseBody(tokens)} {
		if hasDirective(body) || capturedBySwitch(body) {
			return sp, false, nil
		}
	}
	return sp, true, nil
}

func (sp span) thenBody(tokens []lexer.Token) []lexer.Token {
	return tokens[sp.thenOpen+1 : sp.thenClose]
}

func (sp span) elseBody(tokens []lexer.Token) []lexer.Token {
	if sp.elseOpen < 0 {
		return nil
	}
	return tokens[sp.elseOpen+1 : sp.elseClose]
}

func build(tokens []lexer.Token, sp span, eol string, namer Namer, reg Registry) ([]lexer.Token, error) {
	sw, err := namer.FreshNumbered("_sw")
	if err != nil {
		return nil, err
	}
	reg.Preserve(sw)

	b := &builder{reg: reg, eol: eol}
	b.text("{ int " + sw + " = (")
	b.tokens(lexer.TrimTrivia(tokens[sp.condOpen+1 : sp.condClose]))
	b.text(") ? 1 : 0; switch (" + sw + ") { case 1: ")
	b.body(sp.thenBody(tokens))
	b.text("break; default: ")
	b.body(sp.elseBody(tokens))
	b.text("break; } }")
	return b.out, b.err
}

type builder struct {
	reg Registry
	eol string
	out []lexer.Token
	err error
}

func (b *builder) text(s string) {
	if b.err != nil {
		return
	}
	frag, err := lexer.Synthesize(s, b.reg)
	if err != nil {
		b.err = err
		return
	}
	b.out = append(b.out, frag...)
}

// tokens appends original tokens. A fragment ending in a line comment gets a
// newline, otherwise the generated text after it would be commented out.
func (b *builder) tokens(ts []lexer.Token) {
	b.out = append(b.out, ts...)
	if len(ts) > 0 && ts[len(ts)-1].Kind == lexer.KindLineComment {
		b.out = append(b.out, lexer.New(lexer.KindNewline, b.eol))
	}
}

func (b *builder) body(ts []lexer.Token) {
	ts = lexer.TrimTrivia(ts)
	if len(ts) == 0 {
		return
	}
	if mayDeclare(ts) {
		b.text("{ ")
		b.tokens(ts)
		b.text(" } ")
		return
	}
	b.tokens(ts)
	b.text(" ")
}

func unbalanced(at lexer.Token) error {
	return xerror.NewWithStack(xerror.CodePatternError, fmt.Errorf("%w in if statement at offset %d", ErrUnbalanced, at.Offset))
}

func hasDirective(tokens []lexer.Token) bool {
	for _, t := range tokens {
		if t.Kind == lexer.KindPreproc {
			return true
		}
	}
	return false
}
