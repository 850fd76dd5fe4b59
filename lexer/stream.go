package lexer

import (
	"strings"

	"github.com/samber/lo"
)

// Concat serializes a token stream.
func Concat(tokens []Token) string {
	n := 0
	for _, t := range tokens {
		n += len(t.Lexeme)
	}

	var b strings.Builder
	b.Grow(n)
	for _, t := range tokens {
		b.WriteString(t.Lexeme)
	}
	return b.String()
}

// NextSignificant returns the index of the first non-trivia token after i, or -1.
func NextSignificant(tokens []Token, i int) int {
	for j := i + 1; j < len(tokens); j++ {
		if !tokens[j].IsTrivia() {
			return j
		}
	}
	return -1
}

// PrevSignificant returns the index of the last non-trivia token before i, or -1.
func PrevSignificant(tokens []Token, i int) int {
	for j := i - 1; j >= 0; j-- {
		if !tokens[j].IsTrivia() {
			return j
		}
	}
	return -1
}

var closers = map[string]string{"(": ")", "{": "}", "[": "]"}

// MatchClose returns the index of the PUNCT closing the bracket at tokens[open],
// counting only PUNCT tokens of the same bracket type. It returns -1 when the
// bracket is unbalanced or tokens[open] is not an opening bracket.
func MatchClose(tokens []Token, open int) int {
	if open < 0 || open >= len(tokens) || tokens[open].Kind != KindPunct {
		return -1
	}
	opener := tokens[open].Lexeme
	closer, ok := closers[opener]
	if !ok {
		return -1
	}

	depth := 0
	for j := open; j < len(tokens); j++ {
		t := tokens[j]
		if t.Kind != KindPunct {
			continue
		}
		switch t.Lexeme {
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

// TrimTrivia drops leading and trailing whitespace and newlines. Comments are kept.
func TrimTrivia(tokens []Token) []Token {
	isSpace := func(t Token) bool { return t.Kind == KindWhitespace || t.Kind == KindNewline }
	start, end := 0, len(tokens)
	for start < end && isSpace(tokens[start]) {
		start++
	}
	for end > start && isSpace(tokens[end-1]) {
		end--
	}
	return tokens[start:end]
}

// Splice returns tokens with tokens[from:to] replaced by repl.
func Splice(tokens []Token, from, to int, repl []Token) []Token {
	out := make([]Token, 0, len(tokens)-(to-from)+len(repl))
	out = append(out, tokens[:from]...)
	out = append(out, repl...)
	out = append(out, tokens[to:]...)
	return out
}

// DirectiveIdents lists, in order and without duplicates, the identifier-like
// words of a PREPROC lexeme outside its string, character and comment spans.
func DirectiveIdents(lexeme string) []string {
	var words []string
	for i := 0; i < len(lexeme); {
		ch := lexeme[i]
		switch {
		case ch == '"' || ch == '\'':
			i = skipLiteral(lexeme, i)
		case ch == '/' && i+1 < len(lexeme) && lexeme[i+1] == '*':
			end := strings.Index(lexeme[i+2:], "*/")
			if end < 0 {
				return lo.Uniq(words)
			}
			i += end + 4
		case ch == '/' && i+1 < len(lexeme) && lexeme[i+1] == '/':
			return lo.Uniq(words)
		case isDigit(ch):
			for i < len(lexeme) && isIdentContinue(lexeme[i]) {
				i++
			}
		case isIdentStart(ch):
			start := i
			for i < len(lexeme) && isIdentContinue(lexeme[i]) {
				i++
			}
			words = append(words, lexeme[start:i])
		default:
			i++
		}
	}
	return lo.Uniq(words)
}

func skipLiteral(s string, i int) int {
	quote := s[i]
	for i++; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case quote, '\n':
			return i + 1
		}
	}
	return len(s)
}

// LineEnding reports the input's newline convention: the lexeme of the first
// NEWLINE token, "\n" when there is none.
func LineEnding(tokens []Token) string {
	for _, t := range tokens {
		if t.Kind == KindNewline {
			return t.Lexeme
		}
	}
	return "\n"
}

// WithLineEnding rewrites LF line ends of s to eol.
func WithLineEnding(s, eol string) string {
	if eol == "\n" || eol == "" {
		return s
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\n", eol)
}
