package domain

// Posting is the read-only view of a job posting the region module consumes.
// Only the location text and the optional coordinate are read; every other
// field of the crawler payload is carried through untouched by the pipeline.
type Posting struct {
	ID        string   `json:"id,omitempty"`
	Location  string   `json:"location,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Coordinate returns the posting's own coordinate. Both latitude and longitude
// must be present; a half-filled pair counts as no coordinate.
func (p Posting) Coordinate() (Coordinate, bool) {
	if p.Latitude == nil || p.Longitude == nil {
		return Coordinate{}, false
	}
	return Coordinate{Lat: *p.Latitude, Lng: *p.Longitude}, true
}

// Level is the granularity clusters are aggregated at.
type Level string

const (
	LevelProvince Level = "province"
	LevelCity     Level = "city"
)

// ClusterRecord is one map cluster produced by a single aggregation pass.
// Count always equals len(Members); records without a Center never leave the
// aggregator.
type ClusterRecord struct {
	RegionKey  string      `json:"region_key"`
	RegionName string      `json:"region_name"`
	Province   Province    `json:"province"`
	Center     *Coordinate `json:"center"`
	Count      int         `json:"count"`
	Members    []Posting   `json:"members"`
}
