// Package lifecycle names the reasons a shopkeeper enters or leaves the
// active registry.
package lifecycle

// AddedCause is why a shopkeeper was added.
type AddedCause int

const (
	// AddedCreated marks a freshly created shopkeeper.
	AddedCreated AddedCause = iota
	// AddedLoaded marks a shopkeeper restored from storage.
	AddedLoaded
)

func (c AddedCause) String() string {
	switch c {
	case AddedCreated:
		return "created"
	case AddedLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// RemovalCause is why a shopkeeper was removed.
type RemovalCause int

const (
	// RemovedUnload removes the shopkeeper from memory only.
	RemovedUnload RemovalCause = iota
	// RemovedDelete removes the shopkeeper permanently.
	RemovedDelete
)

func (c RemovalCause) String() string {
	switch c {
	case RemovedUnload:
		return "unload"
	case RemovedDelete:
		return "delete"
	default:
		return "unknown"
	}
}
