package datasource

type (
	// Writer is the producer side of a channel.
	Writer[T any] interface {
		// Write publishes value. It must not block, and must not be called
		// concurrently, or re-entrantly.
		Write(value T)
	}

	// Source yields values that have not yet been observed by the reader.
	Source[T any] interface {
		// Read returns the next value, or false if there is nothing new.
		Read() (T, bool)
	}

	// Latest yields the most recently committed value, ignoring history.
	Latest[T any] interface {
		// Latest returns the most recently committed value, or the zero value
		// if nothing has been written.
		Latest() T
	}

	// Sized is implemented by channels and readers with a fixed capacity.
	Sized interface {
		Cap() int
	}

	// Empty is a reader that never yields a value. It is a placeholder for
	// optional collaborators, e.g. a receiver that was not configured.
	Empty[T any] struct{}
)

var (
	// compile time assertions

	_ Writer[int] = (*Overwriting[int])(nil)
	_ Writer[int] = (*Singular[int])(nil)
	_ Source[int] = (*OverwritingReader[int])(nil)
	_ Source[int] = (*SingularReader[int])(nil)
	_ Source[int] = Empty[int]{}
	_ Latest[int] = (*OverwritingReader[int])(nil)
	_ Latest[int] = (*SingularReader[int])(nil)
	_ Latest[int] = Empty[int]{}
	_ Sized       = (*Overwriting[int])(nil)
	_ Sized       = (*OverwritingReader[int])(nil)
)

// Read always returns false.
func (Empty[T]) Read() (value T, ok bool) { return }

// Latest always returns the zero value.
func (Empty[T]) Latest() (value T) { return }
