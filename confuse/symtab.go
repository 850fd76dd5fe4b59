package confuse

import "gomod.pri/cobf/lexer"

// Entry is one original→obfuscated mapping.
type Entry struct {
	Original   string
	Obfuscated string
}

// SymbolTable maps original identifiers to obfuscated ones. Preserved names
// never become keys, and iteration follows insertion order.
type SymbolTable struct {
	gen     *NameGenerator
	guard   Preserver
	index   map[string]int
	entries []Entry
}

func NewSymbolTable(gen *NameGenerator, guard Preserver) *SymbolTable {
	return &SymbolTable{
		gen:   gen,
		guard: guard,
		index: make(map[string]int),
	}
}

// MapOrInsert returns the image of name, allocating one on first sight.
// Preserved names map to themselves and are not recorded.
func (s *SymbolTable) MapOrInsert(name string) (string, error) {
	if i, ok := s.index[name]; ok {
		return s.entries[i].Obfuscated, nil
	}
	if s.guard != nil && s.guard.IsPreserved(name) {
		return name, nil
	}

	obf, err := s.gen.Fresh()
	if err != nil {
		return "", err
	}
	s.index[name] = len(s.entries)
	s.entries = append(s.entries, Entry{Original: name, Obfuscated: obf})
	return obf, nil
}

// Image returns the current image of name, or name itself when unmapped.
func (s *SymbolTable) Image(name string) string {
	if i, ok := s.index[name]; ok {
		return s.entries[i].Obfuscated
	}
	return name
}

func (s *SymbolTable) Len() int {
	return len(s.entries)
}

func (s *SymbolTable) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Rename rewrites every IDENT token in place and returns how many changed.
// KEYWORD, STRING, CHAR, comment and PREPROC tokens are never read.
func (s *SymbolTable) Rename(tokens []lexer.Token) (int, error) {
	renamed := 0
	for i := range tokens {
		if tokens[i].Kind != lexer.KindIdent {
			continue
		}
		img, err := s.MapOrInsert(tokens[i].Lexeme)
		if err != nil {
			return renamed, err
		}
		if img != tokens[i].Lexeme {
			tokens[i].Lexeme = img
			renamed++
		}
	}
	return renamed, nil
}
