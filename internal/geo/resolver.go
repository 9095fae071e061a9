// Package geo picks representative map coordinates for regions.
package geo

import (
	"github.com/couchcryptid/jobmap-region/internal/domain"
	"github.com/couchcryptid/jobmap-region/internal/gazetteer"
)

// Resolver maps a region to a coordinate using the gazetteer tables.
type Resolver struct {
	tables *gazetteer.Gazetteer
}

// NewResolver creates a resolver over g.
func NewResolver(g *gazetteer.Gazetteer) *Resolver {
	return &Resolver{tables: g}
}

// Resolve returns, in order of preference, the posting's own coordinate, the
// city coordinate for region.Key, or the centroid of region.Province. It
// returns nil when none is known, which is always the case for the
// nationwide sentinel.
func (r *Resolver) Resolve(region domain.RegionIdentity, posting *domain.Coordinate) *domain.Coordinate {
	if posting != nil {
		c := *posting
		return &c
	}
	if !region.IsProvinceLevel() {
		if c, ok := r.tables.CityCoordinate(region.Key); ok {
			return &c
		}
	}
	return r.ProvinceCentroid(region.Province)
}

// ProvinceCentroid returns the fixed marker position of p, or nil for
// provinces without one.
func (r *Resolver) ProvinceCentroid(p domain.Province) *domain.Coordinate {
	c, ok := r.tables.Centroid(p)
	if !ok {
		return nil
	}
	return &c
}
