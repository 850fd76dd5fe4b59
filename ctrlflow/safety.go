package ctrlflow

import (
	"github.com/samber/lo"

	"gomod.pri/cobf/lexer"
)

// Keywords that start or appear in statements and expressions. Every other
// keyword (int, const, static, struct, auto, class, ...) can begin a declaration.
var nonDeclKeywords = lo.SliceToMap([]string{
	"if", "else", "while", "for", "do", "switch", "case", "default", "break", "continue",
	"return", "goto", "sizeof", "alignof", "_Alignof", "typeid", "noexcept", "new", "delete",
	"this", "true", "false", "nullptr", "throw", "try", "catch", "co_await", "co_return",
	"co_yield", "static_cast", "dynamic_cast", "reinterpret_cast", "const_cast", "operator",
	"and", "or", "not", "xor", "bitand", "bitor", "compl", "and_eq", "or_eq", "xor_eq",
	"not_eq", "requires", "asm", "_Generic",
}, func(k string) (string, bool) { return k, true })

func isDeclKeyword(t lexer.Token) bool {
	return t.Kind == lexer.KindKeyword && !nonDeclKeywords[t.Lexeme]
}

// significant returns the non-trivia tokens of ts with their paren/brace depth.
func significant(ts []lexer.Token) ([]lexer.Token, []int) {
	var (
		out    []lexer.Token
		depths []int
		depth  int
	)
	for _, t := range ts {
		if t.IsTrivia() {
			continue
		}
		if t.IsPunct(")") || t.IsPunct("}") {
			depth--
		}
		out = append(out, t)
		depths = append(depths, depth)
		if t.IsPunct("(") || t.IsPunct("{") {
			depth++
		}
	}
	return out, depths
}

// declaresInCondition reports init statements (if (x; y)) and condition
// declarations (if (int n = f()), if (Foo* p = g())). The switch form cannot
// carry either.
func declaresInCondition(cond []lexer.Token) bool {
	sig, depths := significant(cond)
	at := func(i int) lexer.Token {
		if i < len(sig) {
			return sig[i]
		}
		return lexer.Token{Kind: lexer.KindWhitespace}
	}

	for i, t := range sig {
		if t.IsPunct(";") {
			return true
		}
		if depths[i] != 0 {
			continue
		}
		next := at(i + 1)
		switch {
		case isDeclKeyword(t):
			if next.Kind == lexer.KindIdent || isDeclKeyword(next) ||
				next.IsPunct("*") || next.IsPunct("&") || next.IsPunct("[") {
				return true
			}
		case t.Kind == lexer.KindIdent:
			if next.Kind == lexer.KindIdent {
				return true
			}
			// Foo* p = ..., Foo& r = ...; "a * b == c" has a second '='
			j := i + 1
			for at(j).IsPunct("*") || at(j).IsPunct("&") {
				j++
			}
			if j > i+1 && at(j).Kind == lexer.KindIdent && at(j+1).IsPunct("=") && !at(j+2).IsPunct("=") {
				return true
			}
		}
	}
	return false
}

// capturedBySwitch reports a break, case or default that would bind to the
// generated switch instead of the statement it belongs to.
func capturedBySwitch(body []lexer.Token) bool {
	sig, _ := significant(body)
	labels := blockLabels(sig)

	var stack []string
	for i, t := range sig {
		switch {
		case t.IsPunct("{"):
			stack = append(stack, labels[i])
		case t.IsPunct("}"):
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case t.IsKeyword("break"):
			if !lo.Contains(stack, "loop") && !lo.Contains(stack, "switch") {
				return true
			}
		case t.IsKeyword("case"), t.IsKeyword("default"):
			if !lo.Contains(stack, "switch") {
				return true
			}
		}
	}
	return false
}

// blockLabels marks the braces that open a loop or switch body. An unbraced
// loop body gets no label, so a break inside it counts as captured.
func blockLabels(sig []lexer.Token) map[int]string {
	labels := make(map[int]string)
	for i, t := range sig {
		if t.Kind != lexer.KindKeyword {
			continue
		}
		label := "loop"
		switch t.Lexeme {
		case "do":
			if i+1 < len(sig) && sig[i+1].IsPunct("{") {
				labels[i+1] = label
			}
			continue
		case "switch":
			label = "switch"
		case "for", "while":
		default:
			continue
		}
		if i+1 >= len(sig) || !sig[i+1].IsPunct("(") {
			continue
		}
		if c := lexer.MatchClose(sig, i+1); c >= 0 && c+1 < len(sig) && sig[c+1].IsPunct("{") {
			labels[c+1] = label
		}
	}
	return labels
}

// mayDeclare reports whether a body has something at its top level that
// could be a declaration. Such bodies are wrapped in braces inside their
// case label: C does not allow a declaration right after a label, and C++
// rejects jumps past an initialization.
func mayDeclare(body []lexer.Token) bool {
	sig, depths := significant(body)
	for i, t := range sig {
		if depths[i] != 0 {
			continue
		}
		if isDeclKeyword(t) {
			return true
		}
		if t.Kind != lexer.KindIdent || i+1 >= len(sig) {
			continue
		}
		next := sig[i+1]
		if next.Kind == lexer.KindIdent {
			return true
		}
		if (next.IsPunct("*") || next.IsPunct("&")) && i+2 < len(sig) && sig[i+2].Kind == lexer.KindIdent {
			return true
		}
	}
	return false
}
