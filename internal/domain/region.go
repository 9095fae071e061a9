package domain

import "math"

// Province is a canonical top-level administrative division.
type Province string

// The 17 canonical provinces.
const (
	ProvinceSeoul     Province = "서울"
	ProvinceBusan     Province = "부산"
	ProvinceDaegu     Province = "대구"
	ProvinceIncheon   Province = "인천"
	ProvinceGwangju   Province = "광주"
	ProvinceDaejeon   Province = "대전"
	ProvinceUlsan     Province = "울산"
	ProvinceSejong    Province = "세종"
	ProvinceGyeonggi  Province = "경기"
	ProvinceGangwon   Province = "강원"
	ProvinceChungbuk  Province = "충북"
	ProvinceChungnam  Province = "충남"
	ProvinceJeonbuk   Province = "전북"
	ProvinceJeonnam   Province = "전남"
	ProvinceGyeongbuk Province = "경북"
	ProvinceGyeongnam Province = "경남"
	ProvinceJeju      Province = "제주"
)

// ProvinceNationwide is the catch-all sentinel for postings that are recognized
// but have no single location. It is not one of the canonical provinces.
const ProvinceNationwide Province = "전국"

var canonicalProvinces = []Province{
	ProvinceSeoul, ProvinceBusan, ProvinceDaegu, ProvinceIncheon,
	ProvinceGwangju, ProvinceDaejeon, ProvinceUlsan, ProvinceSejong,
	ProvinceGyeonggi, ProvinceGangwon, ProvinceChungbuk, ProvinceChungnam,
	ProvinceJeonbuk, ProvinceJeonnam, ProvinceGyeongbuk, ProvinceGyeongnam,
	ProvinceJeju,
}

// CanonicalProvinces returns the 17 canonical provinces in administrative order.
func CanonicalProvinces() []Province {
	out := make([]Province, len(canonicalProvinces))
	copy(out, canonicalProvinces)
	return out
}

// IsCanonical reports whether p is one of the 17 canonical provinces.
func (p Province) IsCanonical() bool {
	for _, c := range canonicalProvinces {
		if p == c {
			return true
		}
	}
	return false
}

// RegionIdentity is the canonical administrative region a location string
// resolves to.
type RegionIdentity struct {
	Key      string   `json:"key"`
	Name     string   `json:"name"`
	Province Province `json:"province"`
}

// ProvinceRegion returns the province-level identity for p.
func ProvinceRegion(p Province) RegionIdentity {
	return RegionIdentity{Key: string(p), Name: string(p), Province: p}
}

// CityRegion returns the city-level identity for name under p.
func CityRegion(p Province, name string) RegionIdentity {
	return RegionIdentity{Key: CityKey(p, name), Name: name, Province: p}
}

// CityKey builds the globally unique key of a city-level identity.
func CityKey(p Province, name string) string {
	return string(p) + "_" + name
}

// IsProvinceLevel reports whether the identity names a whole province.
func (r RegionIdentity) IsProvinceLevel() bool {
	return r.Key == string(r.Province)
}

// Coordinate is a WGS-84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// DistanceKm returns the great-circle (haversine) distance to o in kilometres.
func (c Coordinate) DistanceKm(o Coordinate) float64 {
	const earthRadiusKm = 6371.0
	toRad := math.Pi / 180
	dLat := (o.Lat - c.Lat) * toRad
	dLng := (o.Lng - c.Lng) * toRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(c.Lat*toRad)*math.Cos(o.Lat*toRad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
