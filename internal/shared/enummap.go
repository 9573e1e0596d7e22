package shared

import "fmt"

// EnumMap is a bidirectional translation table between a domain enum and
// its persisted representation. It is validated when built, so a missing or
// duplicated counterpart fails at startup instead of at first lookup.
type EnumMap[D comparable, P comparable] struct {
	name     string
	toStore  map[D]P
	toDomain map[P]D
}

func NewEnumMap[D comparable, P comparable](name string, domainValues []D, pairs map[D]P) (*EnumMap[D, P], error) {
	m := &EnumMap[D, P]{
		name:     name,
		toStore:  make(map[D]P, len(pairs)),
		toDomain: make(map[P]D, len(pairs)),
	}
	for _, d := range domainValues {
		p, ok := pairs[d]
		if !ok {
			return nil, fmt.Errorf("enum map %s: no persistence value for %v", name, d)
		}
		if prev, dup := m.toDomain[p]; dup {
			return nil, fmt.Errorf("enum map %s: %v and %v share persistence value %v", name, prev, d, p)
		}
		m.toStore[d] = p
		m.toDomain[p] = d
	}
	if len(pairs) != len(domainValues) {
		return nil, fmt.Errorf("enum map %s: %d pairs for %d domain values", name, len(pairs), len(domainValues))
	}
	return m, nil
}

// MustEnumMap panics on an incomplete table. Use it for package-level vars.
func MustEnumMap[D comparable, P comparable](name string, domainValues []D, pairs map[D]P) *EnumMap[D, P] {
	m, err := NewEnumMap(name, domainValues, pairs)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *EnumMap[D, P]) ToStore(d D) (P, error) {
	p, ok := m.toStore[d]
	if !ok {
		var zero P
		return zero, fmt.Errorf("enum map %s: unknown domain value %v", m.name, d)
	}
	return p, nil
}

func (m *EnumMap[D, P]) ToDomain(p P) (D, error) {
	d, ok := m.toDomain[p]
	if !ok {
		var zero D
		return zero, fmt.Errorf("enum map %s: unknown persisted value %v", m.name, p)
	}
	return d, nil
}
