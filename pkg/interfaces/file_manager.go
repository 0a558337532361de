package interfaces

// ScratchSpace manages scratch directories and files that only live for the
// duration of one scoped operation, such as a single legacy conversion
type ScratchSpace interface {
	// CreateTempDir creates a tracked scratch directory
	CreateTempDir(prefix string) (string, error)

	// RegisterCleanupFunc registers a cleanup function run on Cleanup
	RegisterCleanupFunc(fn func() error)

	// Cleanup releases every tracked resource
	Cleanup() error

	// WithCleanup executes a function and releases resources on every exit path
	WithCleanup(fn func() error) error
}
