package runtime

import (
	"strconv"

	"github.com/schmidtdse/joshsim/internal/units"
)

// Geometry is the external collaborator §6 names: entities with
// spatial extent hold one. Implementations (GIS math, projections) are
// out of scope here; the scheduler only needs these operations.
type Geometry interface {
	Center() (x, y float64, z *float64)
	Within(other Geometry, distance float64) bool
	Area() (float64, units.Units)
	Length() (float64, units.Units)
}

// PatchKey identifies a patch for deduplication across replicates.
// The source mixes GeometryMomento-keyed and patch-wrapper-keyed
// equality inconsistently; this type picks the reading the spec
// suggests: simulation identity, a canonical geometry form, and patch
// type, so two patches compare equal only when all three match.
type PatchKey struct {
	SimulationID string
	GeometryForm string
	PatchType    string
}

// CanonicalGeometryForm renders a Geometry into a stable string for
// PatchKey comparison. A nil geometry (non-spatial entities) renders
// as the empty string.
func CanonicalGeometryForm(g Geometry) string {
	if g == nil {
		return ""
	}
	x, y, z := g.Center()
	zs := "nil"
	if z != nil {
		zs = strconv.FormatFloat(*z, 'g', -1, 64)
	}
	return strconv.FormatFloat(x, 'g', -1, 64) + "," + strconv.FormatFloat(y, 'g', -1, 64) + "," + zs
}
