package wiring_test

import (
	"testing"

	"github.com/grindlemire/graft"
)

// TestGraftDependencies checks that every node declaring a dependency uses it
// and every used dependency is declared.
func TestGraftDependencies(t *testing.T) {
	// AssertDepsValid infers a dependency ID from the package of the type passed
	// to Dep[T]. Every adapter here provides a type from the ports package
	// (ports.Logger, ports.RecordSourceFactory, ...), so the inferred IDs collapse
	// into "ports" and the check cannot tell the nodes apart.
	t.Skip("graft static analysis cannot distinguish nodes providing ports types")
	graft.AssertDepsValid(t, "../../internal")
}
