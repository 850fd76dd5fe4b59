package confuse

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"

	"gomod.pri/cobf/xerror"
)

// ============================================================================
// Name generator - seeded, collision-checked identifier source
// ============================================================================

const (
	letters     = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits      = "0123456789"
	minNameLen  = 8
	maxNameLen  = 15
	maxAttempts = 64
	numberedMax = 100000
)

var ErrExhausted = errors.New("name generator exhausted")

// Preserver reports names that a generated identifier must never equal.
type Preserver interface {
	IsPreserved(name string) bool
}

type NameGenerator struct {
	rng    *rand.Rand
	guard  Preserver
	issued map[string]struct{}
	taken  map[string]struct{}
}

// NewRand returns the run's deterministic PRNG for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func NewNameGenerator(rng *rand.Rand, guard Preserver) *NameGenerator {
	return &NameGenerator{
		rng:    rng,
		guard:  guard,
		issued: make(map[string]struct{}),
		taken:  make(map[string]struct{}),
	}
}

// Reserve marks names that already exist in the input so fresh names cannot capture them.
func (g *NameGenerator) Reserve(names ...string) {
	for _, n := range names {
		g.taken[n] = struct{}{}
	}
}

// Issued reports whether name was handed out by this generator.
func (g *NameGenerator) Issued(name string) bool {
	_, ok := g.issued[name]
	return ok
}

// Fresh returns a new 8-15 character identifier: a letter followed by
// letters, with roughly one position in three drawn from the digits.
func (g *NameGenerator) Fresh() (string, error) {
	return g.draw(func() string {
		n := minNameLen + g.rng.IntN(maxNameLen-minNameLen+1)
		b := make([]byte, n)
		b[0] = letters[g.rng.IntN(len(letters))]
		for i := 1; i < n; i++ {
			if g.rng.IntN(3) == 0 {
				b[i] = digits[g.rng.IntN(len(digits))]
			} else {
				b[i] = letters[g.rng.IntN(len(letters))]
			}
		}
		return string(b)
	})
}

// FreshNumbered returns prefix followed by decimal digits, e.g. "_sw4821".
func (g *NameGenerator) FreshNumbered(prefix string) (string, error) {
	return g.draw(func() string {
		return prefix + strconv.Itoa(g.rng.IntN(numberedMax))
	})
}

func (g *NameGenerator) draw(candidate func() string) (string, error) {
	for range maxAttempts {
		name := candidate()
		if g.collides(name) {
			continue
		}
		g.issued[name] = struct{}{}
		return name, nil
	}
	return "", xerror.New(xerror.CodeNameError, fmt.Errorf("%w after %d attempts", ErrExhausted, maxAttempts))
}

func (g *NameGenerator) collides(name string) bool {
	if _, ok := g.issued[name]; ok {
		return true
	}
	if _, ok := g.taken[name]; ok {
		return true
	}
	return g.guard != nil && g.guard.IsPreserved(name)
}
