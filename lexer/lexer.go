// Package lexer partitions C and C++ source text into a typed token stream.
// Concatenating the lexemes of a freshly lexed stream reproduces the input
// byte for byte.
package lexer

import (
	"errors"
	"fmt"

	"gomod.pri/cobf/xerror"
)

var (
	ErrUnterminatedComment = errors.New("unterminated comment")
	ErrUnterminatedString  = errors.New("unterminated string literal")
	ErrUnterminatedChar    = errors.New("unterminated character literal")
)

// KeywordSet decides which identifiers are reclassified as keywords.
type KeywordSet interface {
	IsKeyword(name string) bool
}

var (
	stringPrefixes = map[string]bool{"L": true, "u": true, "U": true, "u8": true}
	rawPrefixes    = map[string]bool{"R": true, "LR": true, "uR": true, "UR": true, "u8R": true}
)

const maxRawDelimiter = 16

type scanner struct {
	src       string
	cursor    int
	lineStart bool
	kw        KeywordSet
	tokens    []Token
}

// Tokenize lexes src. kw may be nil, in which case no token is a keyword.
func Tokenize(src string, kw KeywordSet) ([]Token, error) {
	s := &scanner{
		src:       src,
		lineStart: true,
		kw:        kw,
		tokens:    make([]Token, 0, len(src)/3+1),
	}
	if err := s.run(); err != nil {
		return nil, err
	}
	return s.tokens, nil
}

// Synthesize lexes a fragment the obfuscator introduces; every resulting
// token is marked synthetic.
func Synthesize(src string, kw KeywordSet) ([]Token, error) {
	tokens, err := Tokenize(src, kw)
	if err != nil {
		return nil, err
	}
	for i := range tokens {
		tokens[i].Offset = -1
		tokens[i].Length = 0
	}
	return tokens, nil
}

func (s *scanner) run() error {
	for s.cursor < len(s.src) {
		start := s.cursor
		kind, err := s.next()
		if err != nil {
			return xerror.New(xerror.CodeLexError, fmt.Errorf("%w at offset %d", err, start))
		}
		s.tokens = append(s.tokens, Token{
			Kind:   kind,
			Lexeme: s.src[start:s.cursor],
			Offset: start,
			Length: s.cursor - start,
		})

		switch kind {
		case KindNewline:
			s.lineStart = true
		case KindWhitespace:
		default:
			s.lineStart = false
		}
	}
	return nil
}

func (s *scanner) next() (Kind, error) {
	ch := s.src[s.cursor]

	switch {
	case ch == '\n':
		s.cursor++
		return KindNewline, nil
	case ch == '\r' && s.peek(1) == '\n':
		s.cursor += 2
		return KindNewline, nil
	case isHorizontalSpace(ch, s.peek(1)):
		for s.cursor < len(s.src) && isHorizontalSpace(s.src[s.cursor], s.peek(1)) {
			s.cursor++
		}
		return KindWhitespace, nil
	case ch == '/' && s.peek(1) == '/':
		s.skipToLineEnd()
		return KindLineComment, nil
	case ch == '/' && s.peek(1) == '*':
		return KindBlockComment, s.scanBlockComment()
	case ch == '#' && s.lineStart:
		return KindPreproc, s.scanDirective()
	case ch == '"':
		return KindString, s.scanQuoted('"', ErrUnterminatedString)
	case ch == '\'':
		return KindChar, s.scanQuoted('\'', ErrUnterminatedChar)
	case isDigit(ch) || (ch == '.' && isDigit(s.peek(1))):
		s.scanNumber()
		return KindNumber, nil
	case isIdentStart(ch):
		return s.scanIdentifier()
	}

	s.cursor++
	return KindPunct, nil
}

func (s *scanner) peek(n int) byte {
	if s.cursor+n >= len(s.src) {
		return 0
	}
	return s.src[s.cursor+n]
}

func (s *scanner) skipToLineEnd() {
	for s.cursor < len(s.src) {
		ch := s.src[s.cursor]
		if ch == '\n' || (ch == '\r' && s.peek(1) == '\n') {
			return
		}
		s.cursor++
	}
}

func (s *scanner) scanBlockComment() error {
	s.cursor += 2 // "/*"
	for s.cursor+1 < len(s.src) {
		if s.src[s.cursor] == '*' && s.src[s.cursor+1] == '/' {
			s.cursor += 2
			return nil
		}
		s.cursor++
	}
	s.cursor = len(s.src)
	return ErrUnterminatedComment
}

// scanDirective consumes a logical preprocessor line. Strings and block
// comments inside it are skipped as units so an embedded newline or '#'
// cannot end the directive early.
func (s *scanner) scanDirective() error {
	for s.cursor < len(s.src) {
		ch := s.src[s.cursor]
		switch {
		case ch == '\n' || (ch == '\r' && s.peek(1) == '\n'):
			return nil
		case ch == '\\' && s.peek(1) == '\n':
			s.cursor += 2
		case ch == '\\' && s.peek(1) == '\r' && s.peek(2) == '\n':
			s.cursor += 3
		case ch == '/' && s.peek(1) == '*':
			if err := s.scanBlockComment(); err != nil {
				return err
			}
		case ch == '/' && s.peek(1) == '/':
			s.skipToLineEnd()
		case ch == '"':
			s.skipDirectiveString()
		default:
			s.cursor++
		}
	}
	return nil
}

// skipDirectiveString stops at an unescaped line end; directives such as
// #error may carry stray quotes.
func (s *scanner) skipDirectiveString() {
	s.cursor++
	for s.cursor < len(s.src) {
		ch := s.src[s.cursor]
		switch {
		case ch == '\\' && s.cursor+1 < len(s.src):
			s.cursor += 2
		case ch == '"':
			s.cursor++
			return
		case ch == '\n' || (ch == '\r' && s.peek(1) == '\n'):
			return
		default:
			s.cursor++
		}
	}
}

func (s *scanner) scanQuoted(quote byte, unterminated error) error {
	s.cursor++
	for s.cursor < len(s.src) {
		ch := s.src[s.cursor]
		if ch == '\\' {
			s.cursor += 2
			continue
		}
		s.cursor++
		if ch == quote {
			return nil
		}
	}
	s.cursor = len(s.src)
	return unterminated
}

// scanRaw consumes R"delim( ... )delim" with the cursor on the opening quote.
// It reports false without moving when the delimiter is malformed.
func (s *scanner) scanRaw() (bool, error) {
	open := s.cursor
	i := open + 1
	for i < len(s.src) && i-open-1 <= maxRawDelimiter {
		ch := s.src[i]
		if ch == '(' {
			break
		}
		if ch == ')' || ch == '\\' || ch == '"' || ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			return false, nil
		}
		i++
	}
	if i >= len(s.src) || s.src[i] != '(' || i-open-1 > maxRawDelimiter {
		return false, nil
	}

	terminator := ")" + s.src[open+1:i] + `"`
	for j := i + 1; j+len(terminator) <= len(s.src); j++ {
		if s.src[j:j+len(terminator)] == terminator {
			s.cursor = j + len(terminator)
			return true, nil
		}
	}
	s.cursor = len(s.src)
	return true, ErrUnterminatedString
}

// scanNumber follows the preprocessing-number grammar: exponent signs after
// e/E/p/P and C++14 digit separators continue the lexeme.
func (s *scanner) scanNumber() {
	s.cursor++
	for s.cursor < len(s.src) {
		ch := s.src[s.cursor]
		prev := s.src[s.cursor-1]
		switch {
		case isAlnum(ch) || ch == '_' || ch == '.':
		case (ch == '+' || ch == '-') && (prev == 'e' || prev == 'E' || prev == 'p' || prev == 'P'):
		case ch == '\'' && isAlnum(prev) && isAlnum(s.peek(1)):
		default:
			return
		}
		s.cursor++
	}
}

func (s *scanner) scanIdentifier() (Kind, error) {
	start := s.cursor
	for s.cursor < len(s.src) && isIdentContinue(s.src[s.cursor]) {
		s.cursor++
	}
	word := s.src[start:s.cursor]

	if s.cursor < len(s.src) {
		switch next := s.src[s.cursor]; {
		case next == '"' && stringPrefixes[word]:
			return KindString, s.scanQuoted('"', ErrUnterminatedString)
		case next == '\'' && stringPrefixes[word]:
			return KindChar, s.scanQuoted('\'', ErrUnterminatedChar)
		case next == '"' && rawPrefixes[word]:
			ok, err := s.scanRaw()
			if ok {
				return KindString, err
			}
		}
	}

	if s.kw != nil && s.kw.IsKeyword(word) {
		return KindKeyword, nil
	}
	return KindIdent, nil
}

func isHorizontalSpace(ch, next byte) bool {
	switch ch {
	case ' ', '\t', '\v', '\f':
		return true
	case '\r':
		return next != '\n'
	}
	return false
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlnum(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch >= 0x80
}

func isIdentContinue(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
