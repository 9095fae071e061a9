package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/couchcryptid/jobmap-region/internal/cluster"
	"github.com/couchcryptid/jobmap-region/internal/domain"
)

// maxClusterBodyBytes caps the request body of POST /v1/clusters.
const maxClusterBodyBytes = 32 << 20

const (
	modeCluster = "cluster"
	modeMarker  = "marker"
)

type regionResponse struct {
	Location string                 `json:"location"`
	Region   *domain.RegionIdentity `json:"region"`
	Center   *domain.Coordinate     `json:"center"`
}

type clusterRequest struct {
	Zoom     *float64         `json:"zoom"`
	Postings []domain.Posting `json:"postings"`
}

type clusterResponse struct {
	Mode     string                 `json:"mode"`
	Level    domain.Level           `json:"level"`
	Clusters []domain.ClusterRecord `json:"clusters"`
}

type markerResponse struct {
	Mode    string   `json:"mode"`
	Markers []marker `json:"markers"`
}

type marker struct {
	ID         string            `json:"id"`
	RegionKey  string            `json:"region_key"`
	Coordinate domain.Coordinate `json:"coordinate"`
}

// handleRegion serves GET /v1/regions?location=... for the search filter UI.
func (s *Server) handleRegion(w http.ResponseWriter, r *http.Request) {
	if !r.URL.Query().Has("location") {
		writeError(w, http.StatusBadRequest, "location query parameter is required")
		return
	}
	location := r.URL.Query().Get("location")

	resp := regionResponse{Location: location}
	if id, ok := s.deps.Extractor.Extract(location); ok {
		resp.Region = &id
		resp.Center = s.deps.Resolver.Resolve(id, nil)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleClusters serves POST /v1/clusters for the map layer. From the
// cluster-mode zoom level up postings are grouped; below it each recognized
// posting becomes its own marker.
func (s *Server) handleClusters(w http.ResponseWriter, r *http.Request) {
	req, status, err := s.decodeClusterRequest(w, r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	start := time.Now()
	zoom := *req.Zoom

	if cluster.IsClusterMode(zoom) {
		level := cluster.Granularity(zoom)
		clusters := s.deps.Aggregator.Group(req.Postings, level)
		s.observeClusterRequest(start, modeCluster, string(level))

		s.logger.Debug("cluster request served",
			"zoom", zoom,
			"level", level,
			"postings", len(req.Postings),
			"clusters", len(clusters),
		)
		writeJSON(w, http.StatusOK, clusterResponse{Mode: modeCluster, Level: level, Clusters: clusters})
		return
	}

	markers := s.markers(req.Postings)
	s.observeClusterRequest(start, modeMarker, "none")

	s.logger.Debug("marker request served",
		"zoom", zoom,
		"postings", len(req.Postings),
		"markers", len(markers),
	)
	writeJSON(w, http.StatusOK, markerResponse{Mode: modeMarker, Markers: markers})
}

func (s *Server) observeClusterRequest(start time.Time, mode, level string) {
	s.deps.Metrics.ClusterRequests.WithLabelValues(mode, level).Inc()
	s.deps.Metrics.ClusterDuration.Observe(time.Since(start).Seconds())
}

func (s *Server) decodeClusterRequest(w http.ResponseWriter, r *http.Request) (clusterRequest, int, error) {
	var req clusterRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxClusterBodyBytes))
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, http.StatusRequestEntityTooLarge, errors.New("request body too large")
		}
		return req, http.StatusBadRequest, fmt.Errorf("decode request: %w", err)
	}
	if req.Zoom == nil {
		return req, http.StatusBadRequest, errors.New("zoom is required")
	}
	if n := len(req.Postings); n > s.deps.MaxClusterPostings {
		return req, http.StatusRequestEntityTooLarge,
			fmt.Errorf("%d postings exceed the limit of %d", n, s.deps.MaxClusterPostings)
	}
	return req, http.StatusOK, nil
}

// markers places every recognized posting individually. Unrecognized and
// nationwide postings are left off the map.
func (s *Server) markers(postings []domain.Posting) []marker {
	out := make([]marker, 0, len(postings))
	for _, p := range postings {
		id, ok := s.deps.Extractor.Extract(p.Location)
		if !ok || id.Province == domain.ProvinceNationwide {
			continue
		}
		var own *domain.Coordinate
		if c, has := p.Coordinate(); has {
			own = &c
		}
		center := s.deps.Resolver.Resolve(id, own)
		if center == nil {
			continue
		}
		out = append(out, marker{ID: p.ID, RegionKey: id.Key, Coordinate: *center})
	}
	return out
}
