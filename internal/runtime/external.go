package runtime

import "github.com/schmidtdse/joshsim/internal/values"

// ConstantExternal is the simplest ExternalResource: every query
// returns the same value regardless of geometry or time. Real external
// resources (NetCDF rasters, GeoTIFF stacks, CSV time series) are the
// out-of-scope I/O §6 names; this is enough to exercise the `external`
// expression's resolution path end to end.
type ConstantExternal struct {
	Value values.Value
}

func (c ConstantExternal) DistributionFor(geometry Geometry, time *float64) (values.Value, error) {
	return c.Value, nil
}
