package strcrypt

import (
	"gomod.pri/cobf/lexer"
)

// Registry receives names the rewriter introduces so renaming leaves them alone.
type Registry interface {
	Preserve(names ...string)
}

// PreludeNames are the identifiers the decryption prelude defines or calls.
var PreludeNames = []string{
	"_decrypt_str",
	"EVP_CIPHER_CTX", "EVP_CIPHER_CTX_new", "EVP_CIPHER_CTX_free", "EVP_aes_256_cbc",
	"EVP_DecryptInit_ex", "EVP_DecryptUpdate", "EVP_DecryptFinal_ex", "EVP_DecodeBlock",
	"malloc", "free", "memcpy", "strlen", "std", "string",
}

// Literals inside the argument list of these may not be replaced by a variable.
var untouchableCallees = map[string]bool{
	"asm": true, "__asm__": true, "__asm": true, "_Pragma": true,
	"static_assert": true, "_Static_assert": true,
	"__attribute__": true, "__declspec": true,
	"sizeof": true, "alignof": true, "_Alignof": true, "decltype": true, "typeid": true, "noexcept": true,
}

// Qualifiers that may sit between a callee and its '(' (asm volatile (...)).
var calleeQualifiers = map[string]bool{"volatile": true, "inline": true, "goto": true, "__volatile__": true}

// Rewrite replaces every plain string literal with a reference to a
// decrypted variable and returns the new stream with its string table.
// Adjacent literals are joined into one record with their line splices
// removed and their escapes kept apart. Literals whose replacement
// could not compile (linkage specs, asm, static_assert, array initializers,
// prefixed/raw literals, macro or suffix concatenation) stay verbatim.
func Rewrite(tokens []lexer.Token, c *Cipher, reg Registry) ([]lexer.Token, *Table, error) {
	table := &Table{}
	out := make([]lexer.Token, 0, len(tokens))
	var callees []string

	if reg != nil {
		reg.Preserve(PreludeNames...)
	}

	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if t.Kind == lexer.KindPunct {
			switch t.Lexeme {
			case "(":
				callees = append(callees, calleeOf(tokens, i))
			case ")":
				if len(callees) > 0 {
					callees = callees[:len(callees)-1]
				}
			}
		}

		if t.Kind != lexer.KindString || !isPlain(t.Lexeme) {
			out = append(out, t)
			continue
		}

		last := i
		for {
			k := lexer.NextSignificant(tokens, last)
			if k < 0 || tokens[k].Kind != lexer.KindString || !isPlain(tokens[k].Lexeme) {
				break
			}
			last = k
		}

		if untouchable(tokens, i, last, callees) {
			out = append(out, tokens[i:last+1]...)
			i = last
			continue
		}

		var content string
		for k := i; k <= last; k++ {
			if tokens[k].Kind == lexer.KindString {
				content = joinLiteral(content, literalBody(tokens[k].Lexeme))
			}
		}

		enc, err := c.Encrypt([]byte(content))
		if err != nil {
			return nil, nil, err
		}
		rec := table.add(content, enc)
		if reg != nil {
			reg.Preserve(rec.VarName)
		}

		end := tokens[last].Offset + tokens[last].Length
		out = append(out, lexer.Token{
			Kind:   lexer.KindIdent,
			Lexeme: rec.VarName,
			Offset: t.Offset,
			Length: end - t.Offset,
		})
		i = last
	}

	return out, table, nil
}

func isPlain(lexeme string) bool {
	return len(lexeme) >= 2 && lexeme[0] == '"' && lexeme[len(lexeme)-1] == '"'
}

func calleeOf(tokens []lexer.Token, open int) string {
	p := lexer.PrevSignificant(tokens, open)
	for p >= 0 && calleeQualifiers[tokens[p].Lexeme] {
		p = lexer.PrevSignificant(tokens, p)
	}
	if p < 0 {
		return ""
	}
	if k := tokens[p].Kind; k == lexer.KindIdent || k == lexer.KindKeyword {
		return tokens[p].Lexeme
	}
	return ""
}

func untouchable(tokens []lexer.Token, first, last int, callees []string) bool {
	for _, c := range callees {
		if untouchableCallees[c] {
			return true
		}
	}

	// directly adjacent identifier: user-defined literal suffix
	if last+1 < len(tokens) && tokens[last+1].Kind == lexer.KindIdent {
		return true
	}
	// macro or prefixed-literal concatenation: "%" PRId64, u8"a" "b"
	if n := lexer.NextSignificant(tokens, last); n >= 0 &&
		(tokens[n].Kind == lexer.KindIdent || tokens[n].Kind == lexer.KindString) {
		return true
	}

	p := lexer.PrevSignificant(tokens, first)
	if p < 0 {
		return false
	}
	prev := tokens[p]
	switch {
	case prev.Kind == lexer.KindIdent || prev.Kind == lexer.KindString:
		return true
	case prev.IsKeyword("extern") || prev.IsKeyword("operator"):
		return true
	case prev.IsPunct("="):
		return isArrayDeclarator(tokens, lexer.PrevSignificant(tokens, p))
	case prev.IsPunct("{"):
		// char s[] = { "abc" };
		eq := lexer.PrevSignificant(tokens, p)
		if eq < 0 || !tokens[eq].IsPunct("=") {
			return false
		}
		return isArrayDeclarator(tokens, lexer.PrevSignificant(tokens, eq)) && isSoleElement(tokens, last, p)
	}
	return false
}

// Keywords that may precede an expression and so never start a declarator.
var exprKeywords = map[string]bool{
	"return": true, "case": true, "else": true, "do": true, "goto": true,
	"sizeof": true, "delete": true, "throw": true, "co_return": true, "co_yield": true, "co_await": true,
}

// isArrayDeclarator reports whether the ']' at br closes the bounds of an
// array being declared (char s[] or static const char s[2][4]) rather than
// a subscript in an expression (p[0]).
func isArrayDeclarator(tokens []lexer.Token, br int) bool {
	if br < 0 || !tokens[br].IsPunct("]") {
		return false
	}
	for br >= 0 && tokens[br].IsPunct("]") {
		open := matchBracket(tokens, br)
		if open < 0 {
			return false
		}
		br = lexer.PrevSignificant(tokens, open)
	}
	if br < 0 || tokens[br].Kind != lexer.KindIdent {
		return false
	}

	t := lexer.PrevSignificant(tokens, br)
	if t < 0 {
		return false
	}
	switch tok := tokens[t]; tok.Kind {
	case lexer.KindKeyword:
		return !exprKeywords[tok.Lexeme]
	case lexer.KindIdent:
		// typedef name: gchar s[] = "x"
		return true
	}
	return false
}

func matchBracket(tokens []lexer.Token, br int) int {
	depth := 0
	for j := br; j >= 0; j-- {
		switch {
		case tokens[j].IsPunct("]"):
			depth++
		case tokens[j].IsPunct("["):
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

func isSoleElement(tokens []lexer.Token, last, open int) bool {
	n := lexer.NextSignificant(tokens, last)
	return n >= 0 && tokens[n].IsPunct("}") && lexer.MatchClose(tokens, open) == n
}
