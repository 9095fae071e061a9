package cluster

import (
	"math/rand/v2"
	"testing"

	"github.com/couchcryptid/jobmap-region/internal/domain"
	"github.com/couchcryptid/jobmap-region/internal/gazetteer"
	"github.com/couchcryptid/jobmap-region/internal/geo"
	"github.com/couchcryptid/jobmap-region/internal/region"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type extractorFunc func(string) (domain.RegionIdentity, bool)

func (f extractorFunc) Extract(raw string) (domain.RegionIdentity, bool) { return f(raw) }

func newTestAggregator(t *testing.T) *Aggregator {
	t.Helper()
	g, err := gazetteer.Default()
	require.NoError(t, err)
	return NewAggregator(region.NewCascade(g), geo.NewResolver(g))
}

func posting(id, location string, coord ...float64) domain.Posting {
	p := domain.Posting{ID: id, Location: location}
	if len(coord) == 2 {
		lat, lng := coord[0], coord[1]
		p.Latitude, p.Longitude = &lat, &lng
	}
	return p
}

func TestGroup_CityCentroid(t *testing.T) {
	a := newTestAggregator(t)

	postings := []domain.Posting{
		posting("1", "경기 성남시", 37.40, 127.10),
		posting("2", "경기 성남시", 37.44, 127.15),
		posting("3", "경기 성남시", 37.42, 127.13),
	}

	got := a.Group(postings, domain.LevelCity)
	require.Len(t, got, 1)
	assert.Equal(t, "경기_성남", got[0].RegionKey)
	assert.Equal(t, "성남", got[0].RegionName)
	assert.Equal(t, domain.ProvinceGyeonggi, got[0].Province)
	assert.Equal(t, 3, got[0].Count)
	assert.Len(t, got[0].Members, 3)
	require.NotNil(t, got[0].Center)
	assert.InDelta(t, 37.42, got[0].Center.Lat, 1e-9)
	assert.InDelta(t, 127.12666666666667, got[0].Center.Lng, 1e-9)
}

func TestGroup_CityCentroidIgnoresMembersWithoutCoordinates(t *testing.T) {
	a := newTestAggregator(t)

	postings := []domain.Posting{
		posting("1", "경기 성남시", 37.40, 127.10),
		posting("2", "성남시"),
		posting("3", "경기성남시", 37.44, 127.14),
	}

	got := a.Group(postings, domain.LevelCity)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Count)
	assert.InDelta(t, 37.42, got[0].Center.Lat, 1e-9)
	assert.InDelta(t, 127.12, got[0].Center.Lng, 1e-9)
}

func TestGroup_CityWithoutCoordinatesUsesTable(t *testing.T) {
	a := newTestAggregator(t)

	got := a.Group([]domain.Posting{posting("1", "부산 해운대구")}, domain.LevelCity)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Center)
	assert.Equal(t, domain.Coordinate{Lat: 35.1631, Lng: 129.1636}, *got[0].Center)

	got = a.Group([]domain.Posting{posting("1", "경기도교육청")}, domain.LevelCity)
	require.Len(t, got, 1)
	assert.Equal(t, "경기_교육청", got[0].RegionKey)
	assert.Equal(t, &domain.Coordinate{Lat: 37.4138, Lng: 127.5183}, got[0].Center, "unknown city falls back to province centroid")
}

func TestGroup_ProvinceLevel(t *testing.T) {
	a := newTestAggregator(t)

	postings := []domain.Posting{
		posting("1", "경기 성남시", 37.40, 127.10),
		posting("2", "경기 수원시", 37.26, 127.03),
		posting("3", "서울특별시 강남구", 37.51, 127.04),
		posting("4", "경기도"),
	}

	got := a.Group(postings, domain.LevelProvince)
	require.Len(t, got, 2)

	assert.Equal(t, "경기", got[0].RegionKey)
	assert.Equal(t, "경기", got[0].RegionName)
	assert.Equal(t, 3, got[0].Count)
	assert.Equal(t, &domain.Coordinate{Lat: 37.4138, Lng: 127.5183}, got[0].Center, "province clusters sit on the fixed centroid")

	assert.Equal(t, "서울", got[1].RegionKey)
	assert.Equal(t, 1, got[1].Count)
	assert.Equal(t, &domain.Coordinate{Lat: 37.5665, Lng: 126.9780}, got[1].Center)
}

func TestGroup_SkipsUnrecognizedAndNationwide(t *testing.T) {
	a := newTestAggregator(t)

	postings := []domain.Posting{
		posting("1", "Atlantis", 10, 10),
		posting("2", "전국"),
		posting("3", "전국단위 채용", 37.5, 127.0),
		posting("4", ""),
		posting("5", "제주특별자치도 서귀포시"),
	}

	for _, level := range []domain.Level{domain.LevelCity, domain.LevelProvince} {
		got := a.Group(postings, level)
		require.Len(t, got, 1, level)
		assert.Equal(t, domain.ProvinceJeju, got[0].Province)
		assert.Equal(t, "5", got[0].Members[0].ID)
	}
}

func TestGroup_Empty(t *testing.T) {
	a := newTestAggregator(t)

	got := a.Group(nil, domain.LevelCity)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got = a.Group([]domain.Posting{posting("1", "Atlantis")}, domain.LevelProvince)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGroup_DropsClustersWithoutCenter(t *testing.T) {
	g, err := gazetteer.Default()
	require.NoError(t, err)

	extract := extractorFunc(func(raw string) (domain.RegionIdentity, bool) {
		if raw == "nowhere" {
			return domain.CityRegion("아틀란티스", "포세이도니아"), true
		}
		return region.NewCascade(g).Extract(raw)
	})
	a := NewAggregator(extract, geo.NewResolver(g))

	got := a.Group([]domain.Posting{posting("1", "nowhere"), posting("2", "수원")}, domain.LevelCity)
	require.Len(t, got, 1)
	assert.Equal(t, "경기_수원", got[0].RegionKey)
	for _, rec := range got {
		assert.NotNil(t, rec.Center)
	}
}

func TestGroup_SortedByCountStable(t *testing.T) {
	a := newTestAggregator(t)

	postings := []domain.Posting{
		posting("1", "강원 춘천시"),
		posting("2", "전북 전주시"),
		posting("3", "경기 성남시"),
		posting("4", "경기 성남시"),
		posting("5", "경기 성남시"),
		posting("6", "전북 전주시"),
		posting("7", "충북 청주시"),
		posting("8", "충북 청주시"),
	}

	got := a.Group(postings, domain.LevelCity)
	keys := make([]string, len(got))
	for i, rec := range got {
		keys[i] = rec.RegionKey
	}
	// 전주 and 청주 tie at two; 전주 was seen first.
	assert.Equal(t, []string{"경기_성남", "전북_전주", "충북_청주", "강원_춘천"}, keys)

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Count, got[i].Count)
	}
}

func TestGroup_CountsMatchRecognizedPostings(t *testing.T) {
	a := newTestAggregator(t)
	postings := samplePostings()

	g, err := gazetteer.Default()
	require.NoError(t, err)
	e := region.NewCascade(g)

	want := 0
	for _, p := range postings {
		if r, ok := e.Extract(p.Location); ok && r.Province != domain.ProvinceNationwide {
			want++
		}
	}
	require.NotZero(t, want)

	for _, level := range []domain.Level{domain.LevelCity, domain.LevelProvince} {
		total := 0
		for _, rec := range a.Group(postings, level) {
			assert.Equal(t, len(rec.Members), rec.Count)
			total += rec.Count
		}
		assert.Equal(t, want, total, level)
	}
}

func TestGroup_CenterIsArithmeticMean(t *testing.T) {
	g, err := gazetteer.Default()
	require.NoError(t, err)
	e := region.NewCascade(g)
	a := NewAggregator(e, geo.NewResolver(g))
	postings := samplePostings()

	// Sum each city's coordinate-bearing members directly.
	type sum struct {
		lat, lng float64
		n        int
	}
	sums := map[string]*sum{}
	for _, p := range postings {
		r, ok := e.Extract(p.Location)
		c, has := p.Coordinate()
		if !ok || !has || r.Province == domain.ProvinceNationwide {
			continue
		}
		if sums[r.Key] == nil {
			sums[r.Key] = &sum{}
		}
		sums[r.Key].lat += c.Lat
		sums[r.Key].lng += c.Lng
		sums[r.Key].n++
	}
	require.Contains(t, sums, "경기_성남")
	require.Equal(t, 3, sums["경기_성남"].n)
	require.Equal(t, 2, sums["충북_청주"].n)

	assertMeans := func(t *testing.T, records []domain.ClusterRecord) {
		t.Helper()
		got := byKey(records)
		for key, s := range sums {
			rec, ok := got[key]
			require.True(t, ok, key)
			require.NotNil(t, rec.Center, key)
			assert.InDelta(t, s.lat/float64(s.n), rec.Center.Lat, 1e-9, key)
			assert.InDelta(t, s.lng/float64(s.n), rec.Center.Lng, 1e-9, key)
		}
	}

	assertMeans(t, a.Group(postings, domain.LevelCity))

	rng := rand.New(rand.NewPCG(7, 11))
	for range 10 {
		shuffled := append([]domain.Posting(nil), postings...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assertMeans(t, a.Group(shuffled, domain.LevelCity))
	}
}

func byKey(records []domain.ClusterRecord) map[string]domain.ClusterRecord {
	out := make(map[string]domain.ClusterRecord, len(records))
	for _, r := range records {
		out[r.RegionKey] = r
	}
	return out
}

func samplePostings() []domain.Posting {
	return []domain.Posting{
		posting("1", "경기 성남시", 37.40, 127.10),
		posting("2", "경기 성남시", 37.44, 127.15),
		posting("3", "경기도 성남시 분당구", 37.42, 127.13),
		posting("4", "서울특별시 강남구", 37.50, 127.03),
		posting("5", "서울 강남구"),
		posting("6", "구리남양주교육지원청"),
		posting("7", "부산진구", 35.16, 129.05),
		posting("8", "Atlantis"),
		posting("9", "전국"),
		posting("10", "충청북도청주시", 36.64, 127.49),
		posting("11", "충북 청주시", 36.62, 127.47),
		posting("12", "제주"),
		posting("13", ""),
		posting("14", "수원", 37.27, 127.02),
	}
}
