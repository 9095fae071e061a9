package cluster

import "github.com/couchcryptid/jobmap-region/internal/domain"

// Zoom values are map levels: larger numbers are farther out.
const (
	// ProvinceLevelZoom is the level from which clusters aggregate by province.
	ProvinceLevelZoom = 9
	// ClusterModeZoom is the level from which postings render as clusters
	// instead of individual markers.
	ClusterModeZoom = 7
)

// Granularity returns the aggregation level for a map zoom level.
func Granularity(zoom float64) domain.Level {
	if zoom >= ProvinceLevelZoom {
		return domain.LevelProvince
	}
	return domain.LevelCity
}

// IsClusterMode reports whether postings are shown as clusters at zoom.
// It is independent of Granularity; the two thresholds are tuned separately.
func IsClusterMode(zoom float64) bool {
	return zoom >= ClusterModeZoom
}
