package domain

// Locator identifies where summaries handed to the engines come from.
// It is built once during setup and passed to every adapter.
type Locator struct {
	// Registry is the source identity stamped on every registry release.
	Registry string
	// Root is the source identity of the synthetic root that depends on the checked release.
	Root string
}

// DefaultLocator returns the locator used for snapshots loaded from disk or an index.
func DefaultLocator() Locator {
	return Locator{
		Registry: "registry+https://example.com",
		Root:     "path+file:///crosscheck/root",
	}
}
