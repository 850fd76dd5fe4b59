package strcrypt

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// literalBody returns the text between the quotes of a plain literal with
// its line splices removed.
func literalBody(lexeme string) string {
	return stripSplices(lexeme[1 : len(lexeme)-1])
}

// stripSplices deletes every backslash-newline pair in one pass.
func stripSplices(s string) string {
	if !strings.Contains(s, "\\\n") && !strings.Contains(s, "\\\r\n") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			if strings.HasPrefix(s[i+1:], "\n") {
				i++
				continue
			}
			if strings.HasPrefix(s[i+1:], "\r\n") {
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// joinLiteral appends the body of the next adjacent literal to acc. A hex
// or short octal escape that ends acc is rewritten as three octal digits
// when next starts with a digit it would otherwise absorb.
func joinLiteral(acc, next string) string {
	if next == "" || !isHexDigit(next[0]) {
		return acc + next
	}
	start, v, ok := openEscape(acc)
	if !ok {
		return acc + next
	}
	return fmt.Sprintf("%s\\%03o%s", acc[:start], v, next)
}

// openEscape finds a numeric escape that runs to the end of s and could
// still grow: any \x escape, or an octal escape of fewer than three digits.
func openEscape(s string) (int, byte, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			continue
		}
		start := i
		i++
		switch c := s[i]; {
		case c == 'x':
			j := i + 1
			var v byte
			for j < len(s) && isHexDigit(s[j]) {
				v = v<<4 | hexValue(s[j])
				j++
			}
			if j == len(s) && j > i+1 {
				return start, v, true
			}
			i = j - 1
		case isOctalDigit(c):
			j, n := i, 0
			var v byte
			for j < len(s) && n < 3 && isOctalDigit(s[j]) {
				v = v<<3 | (s[j] - '0')
				j++
				n++
			}
			if j == len(s) && n < 3 {
				return start, v, true
			}
			i = j - 1
		}
	}
	return 0, 0, false
}

// Unescape interprets the escape sequences of a narrow literal body the way
// the emitted _decrypt_str does, yielding the bytes the program observes.
func Unescape(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			out = append(out, c)
			continue
		}
		i++
		c = s[i]
		switch c {
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		case 'r':
			out = append(out, '\r')
		case 'a':
			out = append(out, '\a')
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case 'v':
			out = append(out, '\v')
		case '\n':
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case 'x', 'u', 'U':
			limit := 64
			switch c {
			case 'u':
				limit = 4
			case 'U':
				limit = 8
			}
			var v uint64
			for n := 0; n < limit && i+1 < len(s) && isHexDigit(s[i+1]); n++ {
				i++
				v = v<<4 | uint64(hexValue(s[i]))
			}
			if c == 'x' || v < 0x80 {
				out = append(out, byte(v))
			} else {
				out = utf8.AppendRune(out, rune(v))
			}
		default:
			if !isOctalDigit(c) {
				out = append(out, c)
				break
			}
			v := c - '0'
			for n := 1; n < 3 && i+1 < len(s) && isOctalDigit(s[i+1]); n++ {
				i++
				v = v<<3 | (s[i] - '0')
			}
			out = append(out, v)
		}
	}
	return out
}

func isHexDigit(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func isOctalDigit(c byte) bool {
	return c >= '0' && c <= '7'
}

func hexValue(c byte) byte {
	switch {
	case c >= 'a':
		return c - 'a' + 10
	case c >= 'A':
		return c - 'A' + 10
	}
	return c - '0'
}
