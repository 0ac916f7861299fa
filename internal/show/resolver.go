package show

// Resolve walks candidates in strict priority order and returns the first one
// that matches an available variant (case-insensitive). An empty candidate
// never matches. If no candidate resolves, def is returned; def may be nil,
// in which case nil signals the caller to fall through to non-variant-aware
// handling.
func Resolve(candidates []string, store Store, def *Variant) *Variant {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if v, ok := store.Lookup(c); ok {
			return &v
		}
	}
	return def
}

// DefaultVariant picks the startup default: the variant matching preferred if
// it exists, else the lexicographically first available variant, else nil.
func DefaultVariant(store Store, preferred string) *Variant {
	if preferred != "" {
		if v, ok := store.Lookup(preferred); ok {
			return &v
		}
	}
	all := store.List()
	if len(all) == 0 {
		return nil
	}
	v := all[0]
	return &v
}
