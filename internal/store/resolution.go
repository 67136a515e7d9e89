package store

import "fmt"

// ResolveName looks name up from scopeID outward and returns the first
// symbol that is defined in a visible scope, with the scope it was found
// in. Class scopes are only visible from themselves: a method body does
// not see class attributes. Returns nil, nil when the name is unbound.
func (s *Store) ResolveName(scopeID int64, name string) (*Symbol, *Scope, error) {
	chain, err := s.ScopeChain(scopeID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve name %q: %w", name, err)
	}
	for i, sc := range chain {
		if i > 0 && sc.Kind == "class" {
			continue
		}
		sym, err := s.SymbolInScope(sc.ID, name)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve name %q: %w", name, err)
		}
		if sym != nil && sym.IsDefined() {
			return sym, sc, nil
		}
	}
	return nil, nil, nil
}
