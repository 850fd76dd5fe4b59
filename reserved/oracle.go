package reserved

// Oracle answers reserved/preserved questions for one run. It starts from the
// frozen tables of its dialect and grows as passes introduce names of their own.
type Oracle struct {
	dialect Dialect
	extra   map[string]struct{}
}

func NewOracle(d Dialect) *Oracle {
	return &Oracle{
		dialect: d,
		extra:   make(map[string]struct{}),
	}
}

func (o *Oracle) Dialect() Dialect {
	return o.dialect
}

func (o *Oracle) IsKeyword(name string) bool {
	return IsKeyword(name, o.dialect)
}

func (o *Oracle) IsPreserved(name string) bool {
	if IsPreserved(name, o.dialect) {
		return true
	}
	_, ok := o.extra[name]
	return ok
}

// Preserve adds names to the run's preserved set.
func (o *Oracle) Preserve(names ...string) {
	for _, n := range names {
		if n == "" {
			continue
		}
		o.extra[n] = struct{}{}
	}
}
