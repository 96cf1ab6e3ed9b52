package value

// Flags is a small bitset carried alongside every Value.
type Flags uint8

const (
	// FlagExternal marks a Value whose backing memory is owned outside the
	// runtime (host-injected). Clone propagates it to inner references;
	// Destroy is a no-op on an externally-flagged Value.
	FlagExternal Flags = 1 << iota
)

func (f Flags) External() bool { return f&FlagExternal != 0 }
