package reference

import (
	"strings"

	"go.trai.ch/zerr"
)

// ErrUnresolvable is returned when no set of candidates satisfies the root.
var ErrUnresolvable = zerr.New("failed to select a version")

// CycleErrorPrefix starts the message of every CycleError.
const CycleErrorPrefix = "cyclic package dependency"

// CycleError is returned when a complete resolution contains a dependency cycle.
type CycleError struct {
	// Package is the first package found to depend on itself.
	Package PackageID
	// Path lists the packages along the cycle, ending with Package again.
	Path []PackageID
}

func (e *CycleError) Error() string {
	var b strings.Builder
	b.WriteString(CycleErrorPrefix)
	b.WriteString(": package `")
	b.WriteString(e.Package.String())
	b.WriteString("` depends on itself. Cycle:")
	for i, id := range e.Path {
		if i > 0 {
			b.WriteString(" ->")
		}
		b.WriteString(" ")
		b.WriteString(id.String())
	}
	return b.String()
}
