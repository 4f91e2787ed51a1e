package progrock

import (
	"github.com/vito/progrock"
)

// Unit implements ports.ProgressUnit wrapping *progrock.VertexRecorder.
type Unit struct {
	vertex *progrock.VertexRecorder
}

// Write records output on the vertex.
func (u *Unit) Write(p []byte) (int, error) {
	return u.vertex.Stdout().Write(p)
}

// Done marks the vertex as finished (successfully or with an error).
func (u *Unit) Done(err error) {
	u.vertex.Done(err)
}

// Skipped marks a unit that finished without cross-validation. Progrock has
// no skipped state; cached is the closest.
func (u *Unit) Skipped() {
	u.vertex.Cached()
	u.vertex.Done(nil)
}
