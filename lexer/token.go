package lexer

import "fmt"

// Kind classifies a token.
type Kind uint8

const (
	KindIdent Kind = iota
	KindKeyword
	KindString
	KindChar
	KindNumber
	KindPunct
	KindLineComment
	KindBlockComment
	KindPreproc
	KindWhitespace
	KindNewline
)

var kindNames = [...]string{
	KindIdent:        "IDENT",
	KindKeyword:      "KEYWORD",
	KindString:       "STRING",
	KindChar:         "CHAR",
	KindNumber:       "NUMBER",
	KindPunct:        "PUNCT",
	KindLineComment:  "LINE_COMMENT",
	KindBlockComment: "BLOCK_COMMENT",
	KindPreproc:      "PREPROC",
	KindWhitespace:   "WHITESPACE",
	KindNewline:      "NEWLINE",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Token is a classified slice of the input. Lexeme shares memory with the
// input string until a pass replaces it; synthesized tokens have Offset -1.
type Token struct {
	Kind   Kind
	Lexeme string
	Offset int
	Length int
}

// New builds a synthesized token that does not come from the input.
func New(kind Kind, lexeme string) Token {
	return Token{Kind: kind, Lexeme: lexeme, Offset: -1}
}

func (t Token) Synthetic() bool {
	return t.Offset < 0
}

// IsTrivia reports whitespace, newlines and comments.
func (t Token) IsTrivia() bool {
	switch t.Kind {
	case KindWhitespace, KindNewline, KindLineComment, KindBlockComment:
		return true
	}
	return false
}

func (t Token) Is(kind Kind, lexeme string) bool {
	return t.Kind == kind && t.Lexeme == lexeme
}

func (t Token) IsPunct(lexeme string) bool {
	return t.Is(KindPunct, lexeme)
}

func (t Token) IsKeyword(lexeme string) bool {
	return t.Is(KindKeyword, lexeme)
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)", t.Kind, t.Lexeme)
}
