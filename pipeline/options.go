package pipeline

import (
	"io"

	"gomod.pri/cobf/inject"
	"gomod.pri/cobf/reserved"
	"gomod.pri/cobf/strcrypt"
)

// Options selects the dialect, key, seed and the passes of one run.
type Options struct {
	Dialect reserved.Dialect
	// Key is zero-padded or truncated to 32 bytes.
	Key []byte

	StringEncrypt  bool
	ControlFlow    bool
	DeadCode       bool
	DeadCodeBudget int
	AntiDebug      bool
	Identifiers    bool

	Seed uint64
	// Entropy is the IV source of the string cipher; nil selects crypto/rand.
	// Output is byte-identical across runs only with a deterministic source.
	Entropy io.Reader
	// DeterministicIV derives IVs from Seed when Entropy is nil.
	DeterministicIV bool
}

func (o Options) entropy() io.Reader {
	if o.Entropy == nil && o.DeterministicIV {
		return strcrypt.SeededEntropy(o.Seed)
	}
	return o.Entropy
}

// DefaultOptions enables every pass with the built-in key and seed 0.
func DefaultOptions() Options {
	return Options{
		Dialect:        reserved.DialectC,
		Key:            []byte(strcrypt.DefaultKey),
		StringEncrypt:  true,
		ControlFlow:    true,
		DeadCode:       true,
		DeadCodeBudget: inject.DefaultBudget,
		AntiDebug:      true,
		Identifiers:    true,
	}
}
