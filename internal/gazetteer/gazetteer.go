// Package gazetteer loads the region lookup tables used for location
// normalization: province aliases, compound jurisdictions, per-province place
// lists, city coordinates and province centroids.
//
// The tables ship embedded in the binary (regions.yaml) and can be replaced
// with an override file. A Gazetteer is immutable after load and safe for
// concurrent use.
package gazetteer

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/couchcryptid/jobmap-region/internal/domain"
	"gopkg.in/yaml.v3"
)

// MinCentroidSeparationKm is the smallest allowed distance between two
// province centroids. Closer centroids would overlap as markers at low zoom.
const MinCentroidSeparationKm = 25.0

// ErrInvalid is wrapped by every validation error returned from Parse.
var ErrInvalid = errors.New("invalid gazetteer")

//go:embed regions.yaml
var embeddedRegions []byte

var loadDefault = sync.OnceValues(func() (*Gazetteer, error) {
	return Parse(embeddedRegions)
})

// Alias is one spelling of a province (or of the nationwide sentinel).
type Alias struct {
	Text     string
	Province domain.Province
}

// Compound is a multi-city education-office jurisdiction. Any pattern found
// as a substring of a location maps to the compound region. Coordinate is
// served by CityCoordinate for the compound key unless the coordinates table
// lists that key itself.
type Compound struct {
	Name       string
	Province   domain.Province
	Patterns   []string
	Coordinate *domain.Coordinate
}

// Region returns the city-level identity of the compound jurisdiction.
func (c Compound) Region() domain.RegionIdentity {
	return domain.CityRegion(c.Province, c.Name)
}

// Gazetteer holds the validated lookup tables.
type Gazetteer struct {
	provinces   []domain.Province
	aliases     map[string]domain.Province
	byLength    []Alias
	places      map[string]domain.Province
	ambiguities map[string][]domain.Province
	compounds   []Compound
	coordinates map[string]domain.Coordinate
	centroids   map[domain.Province]domain.Coordinate
}

type fileFormat struct {
	Provinces  []provinceEntry `yaml:"provinces"`
	Nationwide struct {
		Aliases []string `yaml:"aliases"`
	} `yaml:"nationwide"`
	Compounds   []compoundEntry              `yaml:"compounds"`
	Coordinates map[string]domain.Coordinate `yaml:"coordinates"`
}

type provinceEntry struct {
	Code      domain.Province    `yaml:"code"`
	Centroid  *domain.Coordinate `yaml:"centroid"`
	Aliases   []string           `yaml:"aliases"`
	Cities    []string           `yaml:"cities"`
	Districts []string           `yaml:"districts"`
}

type compoundEntry struct {
	Name       string             `yaml:"name"`
	Province   domain.Province    `yaml:"province"`
	Patterns   []string           `yaml:"patterns"`
	Coordinate *domain.Coordinate `yaml:"coordinate"`
}

// Default returns the embedded gazetteer. It is parsed once per process.
func Default() (*Gazetteer, error) {
	return loadDefault()
}

// Load returns the gazetteer at path, or the embedded one when path is empty.
func Load(path string) (*Gazetteer, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gazetteer: read %s: %w", path, err)
	}
	g, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w (file %s)", err, path)
	}
	return g, nil
}

// Parse decodes and validates a gazetteer document. Unknown fields are
// rejected so typos in override files fail loudly.
func Parse(data []byte) (*Gazetteer, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc fileFormat
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("gazetteer: decode: %w", err)
	}
	return build(doc)
}

func build(doc fileFormat) (*Gazetteer, error) {
	g := &Gazetteer{
		aliases:     make(map[string]domain.Province),
		places:      make(map[string]domain.Province),
		ambiguities: make(map[string][]domain.Province),
		coordinates: make(map[string]domain.Coordinate, len(doc.Coordinates)),
		centroids:   make(map[domain.Province]domain.Coordinate, len(doc.Provinces)),
	}

	placeOwners := make(map[string][]domain.Province)
	var placeOrder []string

	for _, p := range doc.Provinces {
		if !p.Code.IsCanonical() {
			return nil, invalidf("unknown province %q", p.Code)
		}
		if _, dup := g.centroids[p.Code]; dup {
			return nil, invalidf("province %s declared twice", p.Code)
		}
		if p.Centroid == nil {
			return nil, invalidf("province %s has no centroid", p.Code)
		}
		if err := checkCoordinate(string(p.Code), *p.Centroid); err != nil {
			return nil, err
		}
		g.centroids[p.Code] = *p.Centroid
		g.provinces = append(g.provinces, p.Code)

		if len(p.Aliases) == 0 {
			return nil, invalidf("province %s has no aliases", p.Code)
		}
		for _, a := range p.Aliases {
			if err := g.addAlias(a, p.Code); err != nil {
				return nil, err
			}
		}

		for _, name := range append(append([]string{}, p.Cities...), p.Districts...) {
			name = strings.TrimSpace(name)
			if name == "" {
				return nil, invalidf("province %s has an empty place name", p.Code)
			}
			owners := placeOwners[name]
			if len(owners) == 0 {
				placeOrder = append(placeOrder, name)
			}
			if !containsProvince(owners, p.Code) {
				placeOwners[name] = append(owners, p.Code)
			}
		}
	}

	for _, want := range domain.CanonicalProvinces() {
		if _, ok := g.centroids[want]; !ok {
			return nil, invalidf("province %s missing", want)
		}
	}

	for _, a := range doc.Nationwide.Aliases {
		if err := g.addAlias(a, domain.ProvinceNationwide); err != nil {
			return nil, err
		}
	}

	for _, name := range placeOrder {
		owners := placeOwners[name]
		g.places[name] = owners[0]
		if p, ok := g.aliases[name]; ok && !containsProvince(owners, p) {
			owners = append(owners, p)
		}
		if len(owners) > 1 {
			g.ambiguities[name] = owners
		}
	}

	for _, c := range doc.Compounds {
		if c.Name == "" {
			return nil, invalidf("compound without name")
		}
		if !c.Province.IsCanonical() {
			return nil, invalidf("compound %s: unknown province %q", c.Name, c.Province)
		}
		if len(c.Patterns) == 0 {
			return nil, invalidf("compound %s has no patterns", c.Name)
		}
		for _, pat := range c.Patterns {
			if strings.TrimSpace(pat) == "" || strings.ContainsAny(pat, " \t") {
				return nil, invalidf("compound %s: bad pattern %q", c.Name, pat)
			}
		}
		if c.Coordinate != nil {
			if err := checkCoordinate(c.Name, *c.Coordinate); err != nil {
				return nil, err
			}
		}
		g.compounds = append(g.compounds, Compound{
			Name:       c.Name,
			Province:   c.Province,
			Patterns:   append([]string(nil), c.Patterns...),
			Coordinate: c.Coordinate,
		})
	}

	for key, coord := range doc.Coordinates {
		province, _, ok := strings.Cut(key, "_")
		if !ok || !domain.Province(province).IsCanonical() {
			return nil, invalidf("coordinate key %q is not a city-level region key", key)
		}
		if err := checkCoordinate(key, coord); err != nil {
			return nil, err
		}
		g.coordinates[key] = coord
	}
	for _, c := range g.compounds {
		key := c.Region().Key
		if _, explicit := g.coordinates[key]; !explicit && c.Coordinate != nil {
			g.coordinates[key] = *c.Coordinate
		}
	}

	if err := checkSeparation(g.provinces, g.centroids); err != nil {
		return nil, err
	}

	g.byLength = make([]Alias, 0, len(g.aliases))
	for text, p := range g.aliases {
		g.byLength = append(g.byLength, Alias{Text: text, Province: p})
	}
	sort.Slice(g.byLength, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(g.byLength[i].Text), utf8.RuneCountInString(g.byLength[j].Text)
		if li != lj {
			return li > lj
		}
		return g.byLength[i].Text < g.byLength[j].Text
	})

	return g, nil
}

func (g *Gazetteer) addAlias(text string, p domain.Province) error {
	text = strings.TrimSpace(text)
	if text == "" || strings.ContainsAny(text, " \t") {
		return invalidf("province %s: bad alias %q", p, text)
	}
	if owner, dup := g.aliases[text]; dup {
		return invalidf("duplicate alias %q (%s and %s)", text, owner, p)
	}
	g.aliases[text] = p
	return nil
}

func checkCoordinate(name string, c domain.Coordinate) error {
	if c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180 {
		return invalidf("%s: coordinate out of range (%v, %v)", name, c.Lat, c.Lng)
	}
	return nil
}

func checkSeparation(provinces []domain.Province, centroids map[domain.Province]domain.Coordinate) error {
	for i, a := range provinces {
		for _, b := range provinces[i+1:] {
			if d := centroids[a].DistanceKm(centroids[b]); d < MinCentroidSeparationKm {
				return invalidf("centroids of %s and %s are %.1f km apart (minimum %.0f)", a, b, d, MinCentroidSeparationKm)
			}
		}
	}
	return nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("gazetteer: %w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func containsProvince(ps []domain.Province, p domain.Province) bool {
	for _, x := range ps {
		if x == p {
			return true
		}
	}
	return false
}

// Provinces returns the provinces in declaration order.
func (g *Gazetteer) Provinces() []domain.Province {
	return append([]domain.Province(nil), g.provinces...)
}

// Alias looks up an exact alias.
func (g *Gazetteer) Alias(text string) (domain.Province, bool) {
	p, ok := g.aliases[text]
	return p, ok
}

// AliasesByLength returns every alias, longest first. Ties are ordered
// lexically so iteration is deterministic.
func (g *Gazetteer) AliasesByLength() []Alias {
	return append([]Alias(nil), g.byLength...)
}

// Place looks up a bare city or district name. Names declared under more than
// one province resolve to the first declaration.
func (g *Gazetteer) Place(name string) (domain.Province, bool) {
	p, ok := g.places[name]
	return p, ok
}

// Ambiguities lists bare place names that belong to more than one province,
// either because several provinces declare them or because the name is also
// another province's alias. Provinces are in declaration order; the first is
// the one Place returns.
func (g *Gazetteer) Ambiguities() map[string][]domain.Province {
	out := make(map[string][]domain.Province, len(g.ambiguities))
	for name, ps := range g.ambiguities {
		out[name] = append([]domain.Province(nil), ps...)
	}
	return out
}

// Compounds returns the compound jurisdictions in declaration order.
func (g *Gazetteer) Compounds() []Compound {
	return append([]Compound(nil), g.compounds...)
}

// CityCoordinate returns the representative coordinate of a city-level key.
func (g *Gazetteer) CityCoordinate(key string) (domain.Coordinate, bool) {
	c, ok := g.coordinates[key]
	return c, ok
}

// Centroid returns the fixed marker position of a canonical province.
func (g *Gazetteer) Centroid(p domain.Province) (domain.Coordinate, bool) {
	c, ok := g.centroids[p]
	return c, ok
}
