package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// RegionTag is the region enrichment added to a posting payload.
// Region is nil when the location was not recognized; such postings stay in
// list views and are left off the map.
type RegionTag struct {
	Region *RegionIdentity
	Center *Coordinate
}

// TagPosting merges tag into the original posting payload and serializes it
// for the sink topic. Fields the module does not know about are preserved
// with the same values, though key order and whitespace may change; only
// "region", "region_center" and "processed_at" are set.
func TagPosting(id string, payload json.RawMessage, tag RegionTag) (OutputEvent, error) {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return OutputEvent{}, fmt.Errorf("decode posting payload: %w", err)
	}

	processedAt := clock.Now().UTC()
	if err := setField(fields, "region", tag.Region); err != nil {
		return OutputEvent{}, err
	}
	if err := setField(fields, "region_center", tag.Center); err != nil {
		return OutputEvent{}, err
	}
	if err := setField(fields, "processed_at", processedAt.Format(time.RFC3339)); err != nil {
		return OutputEvent{}, err
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize tagged posting: %w", err)
	}

	province := ""
	if tag.Region != nil {
		province = string(tag.Region.Province)
	}
	return OutputEvent{
		Key:   []byte(id),
		Value: data,
		Headers: map[string]string{
			"province":     province,
			"processed_at": processedAt.Format(time.RFC3339),
		},
	}, nil
}

func setField(fields map[string]json.RawMessage, name string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	fields[name] = b
	return nil
}
