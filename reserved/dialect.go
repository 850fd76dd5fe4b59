package reserved

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Dialect selects the keyword and preserved-name tables for a run.
type Dialect uint8

const (
	DialectC Dialect = iota
	DialectCPP
)

func (d Dialect) String() string {
	switch d {
	case DialectC:
		return "c"
	case DialectCPP:
		return "cpp"
	default:
		return fmt.Sprintf("dialect(%d)", uint8(d))
	}
}

func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c":
		return DialectC, nil
	case "cpp", "c++", "cxx":
		return DialectCPP, nil
	default:
		return DialectC, fmt.Errorf("unsupported dialect %q", s)
	}
}

// DialectForPath guesses the dialect from a source file extension.
func DialectForPath(path string) Dialect {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cc", ".cpp", ".cxx", ".c++", ".hpp", ".hh", ".hxx", ".ipp":
		return DialectCPP
	default:
		return DialectC
	}
}
