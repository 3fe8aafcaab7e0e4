package dashboard

import "salesdash/internal/engine"

// Selection is the complete user input of one dashboard render: the
// sidebar filters plus every chart's own selector, keyed by chart id.
// Missing or empty values mean All.
type Selection struct {
	Year     string
	Products []string
	Local    map[string]string
}

// Global returns the sidebar predicates: year Equals, product MemberOf.
func (s Selection) Global() []engine.Predicate {
	year := s.Year
	if year == "" {
		year = engine.All
	}
	return []engine.Predicate{
		engine.Eq(ColYear, year),
		engine.In(ColProduct, s.Products...),
	}
}

// LocalValue is the selector value for chart id.
func (s Selection) LocalValue(id string) string {
	if v := s.Local[id]; v != "" {
		return v
	}
	return engine.All
}

// WithLocal returns a copy of s with the selector of chart id set to v.
func (s Selection) WithLocal(id, v string) Selection {
	local := make(map[string]string, len(s.Local)+1)
	for k, old := range s.Local {
		local[k] = old
	}
	local[id] = v
	s.Local = local
	return s
}
