package pkg

func ToPtr[T any](v T) *T {
	return &v
}

// FromPtr dereferences v, returning def when v is nil
func FromPtr[T any](v *T, def T) T {
	if v == nil {
		return def
	}
	return *v
}
