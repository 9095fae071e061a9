package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/couchcryptid/jobmap-region/internal/cluster"
	"github.com/couchcryptid/jobmap-region/internal/domain"
	"github.com/couchcryptid/jobmap-region/internal/gazetteer"
	"github.com/couchcryptid/jobmap-region/internal/geo"
	"github.com/couchcryptid/jobmap-region/internal/payload"
	"github.com/couchcryptid/jobmap-region/internal/region"
)

// maxLineBytes bounds one JSON line; crawled titles and bodies can be long.
const maxLineBytes = 4 << 20

// phase tracks pass/fail for a report section.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// expectation is the optional expected_province label on a mock posting.
// A present but empty label means the location should stay unrecognized.
type expectation struct {
	ExpectedProvince *string `json:"expected_province"`
}

type tagged struct {
	line     int
	posting  domain.Posting
	region   domain.RegionIdentity
	ok       bool
	expected *string
}

// progress is the subset of the progress bar the auditor drives.
type progress interface {
	Add(n int) error
}

type auditor struct {
	extractor       region.Extractor
	aggregator      *cluster.Aggregator
	ambiguities     map[string][]domain.Province
	maxUnrecognized float64

	postings []tagged
	validity phase
}

func newAuditor(tables *gazetteer.Gazetteer, maxUnrecognized float64) *auditor {
	extractor := region.NewCascade(tables)
	return &auditor{
		extractor:       extractor,
		aggregator:      cluster.NewAggregator(extractor, geo.NewResolver(tables)),
		ambiguities:     tables.Ambiguities(),
		maxUnrecognized: maxUnrecognized,
		validity:        phase{name: "Phase 1: Payload validity (schema)"},
	}
}

// readPostings validates and tags every line of r. Invalid payloads are
// recorded as phase errors rather than aborting the audit.
func (a *auditor) readPostings(r io.Reader, bar progress) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		_ = bar.Add(len(raw) + 1)
		if len(strings.TrimSpace(string(raw))) == 0 {
			continue
		}

		posting, err := payload.ValidatePostingPayload(raw)
		if err != nil {
			a.validity.errorf("line %d: %v", line, err)
			continue
		}
		var exp expectation
		if err := json.Unmarshal(raw, &exp); err != nil {
			a.validity.errorf("line %d: expected_province: %v", line, err)
			continue
		}

		id, ok := a.extractor.Extract(posting.Location)
		a.postings = append(a.postings, tagged{
			line:     line,
			posting:  *posting,
			region:   id,
			ok:       ok,
			expected: exp.ExpectedProvince,
		})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read postings: %w", err)
	}
	return nil
}

type report struct {
	total        int
	city         int
	province     int
	nationwide   int
	unrecognized int

	phases    []*phase
	ambiguous map[string]int
	provinces []domain.ClusterRecord
	cities    []domain.ClusterRecord
}

func (a *auditor) report() *report {
	rep := &report{total: len(a.postings), ambiguous: map[string]int{}}

	coverage := &phase{name: "Phase 2: Coverage"}
	mismatches := &phase{name: "Phase 3: Expected provinces"}

	postings := make([]domain.Posting, 0, len(a.postings))
	for _, t := range a.postings {
		postings = append(postings, t.posting)

		switch {
		case !t.ok:
			rep.unrecognized++
		case t.region.Province == domain.ProvinceNationwide:
			rep.nationwide++
		case t.region.IsProvinceLevel():
			rep.province++
		default:
			rep.city++
		}

		checkExpected(mismatches, t)
		for _, name := range a.ambiguousNames(t.posting.Location) {
			rep.ambiguous[name]++
		}
	}

	if ratio := rep.unrecognizedRatio(); ratio > a.maxUnrecognized {
		coverage.errorf("unrecognized ratio %.3f exceeds %.3f", ratio, a.maxUnrecognized)
		for _, t := range a.postings {
			if !t.ok {
				coverage.errorf("line %d (%s): %q not recognized", t.line, t.posting.ID, t.posting.Location)
			}
		}
	}

	rep.phases = []*phase{&a.validity, coverage, mismatches}
	rep.provinces = a.aggregator.Group(postings, domain.LevelProvince)
	rep.cities = a.aggregator.Group(postings, domain.LevelCity)
	return rep
}

func checkExpected(p *phase, t tagged) {
	if t.expected == nil {
		return
	}
	want := *t.expected
	got := ""
	if t.ok {
		got = string(t.region.Province)
	}
	if got != want {
		p.errorf("line %d (%s): %q tagged %q, expected %q", t.line, t.posting.ID, t.posting.Location, got, want)
	}
}

// ambiguousNames lists the ambiguous place names a location mentions, with or
// without a 시/군/구 suffix.
func (a *auditor) ambiguousNames(location string) []string {
	var names []string
	for _, token := range strings.Fields(region.Normalize(location)) {
		for _, suffix := range []string{"", "시", "군", "구"} {
			name := strings.TrimSuffix(token, suffix)
			if name == "" || (suffix != "" && name == token) {
				continue
			}
			if _, ok := a.ambiguities[name]; ok {
				names = append(names, name)
				break
			}
		}
	}
	return names
}

func (r *report) unrecognizedRatio() float64 {
	if r.total == 0 {
		return 0
	}
	return float64(r.unrecognized) / float64(r.total)
}

func (r *report) passed() bool {
	for _, p := range r.phases {
		if !p.passed() {
			return false
		}
	}
	return true
}

func (r *report) print(w io.Writer, top int) {
	fmt.Fprintln(w, "=== Region Extraction Audit ===")
	fmt.Fprintln(w)

	for _, p := range r.phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Postings: %d tagged (%d city, %d province, %d nationwide, %d unrecognized, ratio %.3f)\n",
		r.total, r.city, r.province, r.nationwide, r.unrecognized, r.unrecognizedRatio())

	if len(r.ambiguous) > 0 {
		fmt.Fprintln(w, "\n--- Phase 4: Ambiguous names hit ---")
		names := make([]string, 0, len(r.ambiguous))
		for name := range r.ambiguous {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %-10s %d\n", name, r.ambiguous[name])
		}
	}

	fmt.Fprintln(w, "\n--- Phase 5: Cluster summary ---")
	printClusters(w, "province", r.provinces, top)
	printClusters(w, "city", r.cities, top)

	for _, p := range r.phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if r.passed() {
		fmt.Fprintln(w, "\nAudit passed.")
		return
	}
	fmt.Fprintln(w, "\nAudit FAILED.")
}

func printClusters(w io.Writer, level string, records []domain.ClusterRecord, top int) {
	fmt.Fprintf(w, "  %s (%d clusters)\n", level, len(records))
	for i, rec := range records {
		if i == top {
			fmt.Fprintf(w, "    ... %d more\n", len(records)-top)
			break
		}
		fmt.Fprintf(w, "    %-16s %4d  (%.4f, %.4f)\n", rec.RegionKey, rec.Count, rec.Center.Lat, rec.Center.Lng)
	}
}
