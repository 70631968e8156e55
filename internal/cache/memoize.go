package cache

// Memoize wraps a pure function with a dedicated bounded cache keyed on the
// canonicalized argument list.
//
// There is no single-flight coalescing: concurrent callers that miss on the
// same arguments may both invoke fn. That is acceptable only because wrapped
// functions are required to be pure and idempotent; do not memoize functions
// with side effects.
func Memoize[R any](fn func(args ...any) (R, error), cacheSize int) (func(args ...any) (R, error), error) {
	c, err := New(cacheSize, 0)
	if err != nil {
		return nil, err
	}

	return func(args ...any) (R, error) {
		key, keyErr := Key(args)
		if keyErr != nil {
			// Unkeyable arguments: compute without caching.
			return fn(args...)
		}

		if v, ok := c.Get(key); ok {
			return v.(R), nil
		}

		r, err := fn(args...)
		if err != nil {
			return r, err
		}
		c.Set(key, r)
		return r, nil
	}, nil
}
