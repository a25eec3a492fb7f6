package shopobject

// DefaultRegistry returns a registry holding the built-in object types.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, t := range []*Type{NewVirtualType(), NewSignType(), NewCitizenType()} {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}
