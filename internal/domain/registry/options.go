package registry

// Option configures the in-memory registry.
type Option func(*inMemoryRegistry)

// WithCapacity pre-sizes the key set.
func WithCapacity(n int) Option {
	return func(r *inMemoryRegistry) {
		if n > 0 {
			r.hint = n
		}
	}
}
