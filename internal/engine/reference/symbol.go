package reference

import "sync"

// Symbol is an interned string. The zero Symbol is the empty string.
type Symbol uint32

var symbols = struct {
	sync.RWMutex
	ids   map[string]Symbol
	names []string
}{
	ids:   map[string]Symbol{"": 0},
	names: []string{""},
}

// Intern returns the symbol for s, allocating one on first use.
func Intern(s string) Symbol {
	symbols.RLock()
	id, ok := symbols.ids[s]
	symbols.RUnlock()
	if ok {
		return id
	}

	symbols.Lock()
	defer symbols.Unlock()
	if id, ok := symbols.ids[s]; ok {
		return id
	}
	id = Symbol(len(symbols.names))
	symbols.ids[s] = id
	symbols.names = append(symbols.names, s)
	return id
}

// InternAll interns every element of strs.
func InternAll(strs []string) []Symbol {
	if len(strs) == 0 {
		return nil
	}
	out := make([]Symbol, len(strs))
	for i, s := range strs {
		out[i] = Intern(s)
	}
	return out
}

// String returns the interned text.
func (s Symbol) String() string {
	symbols.RLock()
	defer symbols.RUnlock()
	return symbols.names[s]
}
