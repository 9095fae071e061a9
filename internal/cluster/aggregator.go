// Package cluster aggregates postings into map clusters and selects the level
// of detail for a map zoom level.
package cluster

import (
	"sort"

	"github.com/couchcryptid/jobmap-region/internal/domain"
	"github.com/couchcryptid/jobmap-region/internal/region"
)

// CoordinateResolver picks representative coordinates for regions.
type CoordinateResolver interface {
	Resolve(r domain.RegionIdentity, posting *domain.Coordinate) *domain.Coordinate
	ProvinceCentroid(p domain.Province) *domain.Coordinate
}

// Aggregator groups postings by region. It is stateless between calls.
type Aggregator struct {
	extractor region.Extractor
	resolver  CoordinateResolver
}

// NewAggregator creates an aggregator.
func NewAggregator(extractor region.Extractor, resolver CoordinateResolver) *Aggregator {
	return &Aggregator{extractor: extractor, resolver: resolver}
}

type bucket struct {
	record domain.ClusterRecord
	center domain.Coordinate
	n      int
}

// Group clusters postings at level and returns the clusters largest first.
// Postings with an unrecognized location or the nationwide sentinel are
// skipped. At province level every cluster sits on the province centroid; at
// city level the center is the mean of the members' own coordinates, falling
// back to the region's table coordinate when no member has one. Clusters
// without any center are dropped.
func (a *Aggregator) Group(postings []domain.Posting, level domain.Level) []domain.ClusterRecord {
	buckets := make(map[string]*bucket)
	var order []*bucket

	for _, p := range postings {
		r, ok := a.extractor.Extract(p.Location)
		if !ok || r.Province == domain.ProvinceNationwide {
			continue
		}

		key, name := r.Key, r.Name
		if level == domain.LevelProvince {
			key, name = string(r.Province), string(r.Province)
		}

		b, ok := buckets[key]
		if !ok {
			b = &bucket{record: domain.ClusterRecord{
				RegionKey:  key,
				RegionName: name,
				Province:   r.Province,
			}}
			buckets[key] = b
			order = append(order, b)
		}
		b.record.Members = append(b.record.Members, p)

		if level != domain.LevelProvince {
			if c, ok := p.Coordinate(); ok {
				b.n++
				b.center.Lat += (c.Lat - b.center.Lat) / float64(b.n)
				b.center.Lng += (c.Lng - b.center.Lng) / float64(b.n)
			}
		}
	}

	out := make([]domain.ClusterRecord, 0, len(order))
	for _, b := range order {
		rec := b.record
		switch {
		case level == domain.LevelProvince:
			rec.Center = a.resolver.ProvinceCentroid(rec.Province)
		case b.n > 0:
			c := b.center
			rec.Center = &c
		default:
			rec.Center = a.resolver.Resolve(domain.RegionIdentity{
				Key:      rec.RegionKey,
				Name:     rec.RegionName,
				Province: rec.Province,
			}, nil)
		}
		if rec.Center == nil {
			continue
		}
		rec.Count = len(rec.Members)
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}
