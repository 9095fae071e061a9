package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/jobmap-region/internal/domain"
	"github.com/couchcryptid/jobmap-region/internal/observability"
	"github.com/couchcryptid/jobmap-region/internal/payload"
	"github.com/couchcryptid/jobmap-region/internal/region"
)

// CoordinateResolver picks the coordinate stored alongside a region.
type CoordinateResolver interface {
	Resolve(r domain.RegionIdentity, posting *domain.Coordinate) *domain.Coordinate
}

// RegionTransformer implements Transformer by validating the crawled posting
// and tagging it with its region and map coordinate.
type RegionTransformer struct {
	extractor region.Extractor
	resolver  CoordinateResolver
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewTransformer creates a RegionTransformer.
func NewTransformer(extractor region.Extractor, resolver CoordinateResolver, metrics *observability.Metrics, logger *slog.Logger) *RegionTransformer {
	return &RegionTransformer{
		extractor: extractor,
		resolver:  resolver,
		metrics:   metrics,
		logger:    logger,
	}
}

func (t *RegionTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	posting, err := payload.ValidatePostingPayload(raw.Value)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("validate posting: %w", err)
	}

	var tag domain.RegionTag
	r, ok := t.extractor.Extract(posting.Location)
	if ok {
		var own *domain.Coordinate
		if c, has := posting.Coordinate(); has {
			own = &c
		}
		tag.Region = &r
		tag.Center = t.resolver.Resolve(r, own)
	} else {
		t.logger.Debug("location not recognized",
			"posting_id", posting.ID,
			"location", posting.Location,
		)
	}
	t.metrics.RegionExtractions.WithLabelValues(outcome(r, ok)).Inc()

	return domain.TagPosting(posting.ID, raw.Value, tag)
}

func outcome(r domain.RegionIdentity, ok bool) string {
	switch {
	case !ok:
		return observability.OutcomeUnrecognized
	case r.Province == domain.ProvinceNationwide:
		return observability.OutcomeNationwide
	case r.IsProvinceLevel():
		return observability.OutcomeProvince
	default:
		return observability.OutcomeCity
	}
}
