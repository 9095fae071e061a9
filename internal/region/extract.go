// Package region turns free-text Korean location strings into canonical
// region identities.
//
// Extraction is a fixed cascade over the gazetteer tables: compound
// jurisdictions, exact aliases, concatenated and space-delimited
// "province city" forms, and finally a bare city/district lookup. The first
// rule that matches wins. Anything else is unrecognized: a posting without a
// trustworthy region is left off the map rather than placed somewhere wrong.
package region

import (
	"strings"

	"github.com/couchcryptid/jobmap-region/internal/domain"
	"github.com/couchcryptid/jobmap-region/internal/gazetteer"
)

// Extractor resolves a location string to a region.
type Extractor interface {
	Extract(raw string) (domain.RegionIdentity, bool)
}

// Cascade is the rule-based Extractor over the gazetteer tables. It holds no
// mutable state and is safe for concurrent use.
type Cascade struct {
	aliases   *AliasResolver
	tables    *gazetteer.Gazetteer
	compounds []gazetteer.Compound
}

// NewCascade builds the extraction cascade over g.
func NewCascade(g *gazetteer.Gazetteer) *Cascade {
	return &Cascade{
		aliases:   NewAliasResolver(g),
		tables:    g,
		compounds: g.Compounds(),
	}
}

// Extract returns the region raw refers to. The boolean is false for empty
// input and for anything no rule recognizes.
func (e *Cascade) Extract(raw string) (domain.RegionIdentity, bool) {
	s := Normalize(raw)
	if s == "" {
		return domain.RegionIdentity{}, false
	}
	compact := strings.ReplaceAll(s, " ", "")

	if c, ok := e.matchCompound(s, compact); ok {
		return c.Region(), true
	}

	if p, ok := e.aliases.Resolve(s); ok {
		return domain.ProvinceRegion(p), true
	}
	if p, ok := e.aliases.Resolve(compact); ok {
		return domain.ProvinceRegion(p), true
	}

	first, rest, _ := strings.Cut(s, " ")

	// 경기성남시, 서울특별시강남구
	if alias, p, ok := e.aliases.LongestPrefix(s); ok && !strings.HasPrefix(s[len(alias):], " ") {
		// 부산진구 starts with the alias 부산 but is a district of its own.
		if name := stripCitySuffix(first); name != alias {
			if owner, known := e.tables.Place(name); known && owner == p {
				return domain.CityRegion(p, name), true
			}
		}
		// Later tokens (분당구, 동/읍/면) are finer than a city and dropped
		// so keys line up with the coordinate table.
		return e.cityUnder(p, first[len(alias):]), true
	}

	// 경기 성남시 분당구: only the leading remaining token names the city.
	if p, ok := e.aliases.Resolve(first); ok {
		next, _, _ := strings.Cut(rest, " ")
		return e.cityUnder(p, next), true
	}

	// 성남시, 강남구
	if name := stripCitySuffix(first); name != "" {
		if p, ok := e.tables.Place(name); ok {
			return domain.CityRegion(p, name), true
		}
	}
	if p, ok := e.aliases.Resolve(stripSuffix(first, metroSuffixes)); ok {
		return domain.ProvinceRegion(p), true
	}

	return domain.RegionIdentity{}, false
}

func (e *Cascade) matchCompound(s, compact string) (gazetteer.Compound, bool) {
	for _, c := range e.compounds {
		for _, pat := range c.Patterns {
			if strings.Contains(s, pat) || strings.Contains(compact, pat) {
				return c, true
			}
		}
	}
	return gazetteer.Compound{}, false
}

// cityUnder builds the identity for the text following a province alias.
// Bare administrative suffixes and the nationwide sentinel stay
// province-level. A 읍/면 suffix is dropped only when what remains is a
// place of p, so 세종 조치원읍 becomes 조치원 while 전북 정읍 stays 정읍.
func (e *Cascade) cityUnder(p domain.Province, token string) domain.RegionIdentity {
	if token == "" || isAdminSuffix(token) || p == domain.ProvinceNationwide {
		return domain.ProvinceRegion(p)
	}
	name := stripCitySuffix(token)
	if name == token {
		if town := stripSuffix(token, townSuffixes); town != token {
			if owner, ok := e.tables.Place(town); ok && owner == p {
				name = town
			}
		}
	}
	return domain.CityRegion(p, name)
}
