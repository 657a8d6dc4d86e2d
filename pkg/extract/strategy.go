package extract

// Strategy is one named heuristic for a single field
type Strategy[T any] struct {
	Name string
	Fn   func(*Page) T
}

// First runs strategies in order and returns the first result accepted by
// ok, together with the winning strategy name. When none succeeds it returns
// the zero value and "".
func First[T any](p *Page, strategies []Strategy[T], ok func(T) bool) (T, string) {
	for _, s := range strategies {
		if v := s.Fn(p); ok(v) {
			return v, s.Name
		}
	}
	var zero T
	return zero, ""
}

func nonEmpty(s string) bool { return s != "" }
