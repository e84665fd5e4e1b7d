package endpoint

// Resolver is immutable after construction and safe for concurrent use.
type Resolver struct {
	specs []Spec
}

func NewResolver(specs []Spec) *Resolver {
	cp := make([]Spec, len(specs))
	copy(cp, specs)
	return &Resolver{specs: cp}
}

// Resolve returns the key of the first spec matching url, or GlobalKey.
func (r *Resolver) Resolve(url string) string {
	for _, spec := range r.specs {
		if spec.Matches(url) {
			return spec.Key()
		}
	}
	return GlobalKey
}

// Specs returns the configured endpoints in configuration order.
func (r *Resolver) Specs() []Spec {
	cp := make([]Spec, len(r.specs))
	copy(cp, r.specs)
	return cp
}
