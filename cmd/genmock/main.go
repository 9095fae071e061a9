// Command genmock runs the mock crawl through the region transformer and
// writes the tagged postings as a fixture for downstream map consumers. It
// uses the real pipeline transformer so the fixture matches what the service
// publishes.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -in data/mock/job_postings.jsonl \
//	  -out data/mock/job_postings_tagged.jsonl
package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/jobmap-region/internal/domain"
	"github.com/couchcryptid/jobmap-region/internal/gazetteer"
	"github.com/couchcryptid/jobmap-region/internal/geo"
	"github.com/couchcryptid/jobmap-region/internal/observability"
	"github.com/couchcryptid/jobmap-region/internal/pipeline"
	"github.com/couchcryptid/jobmap-region/internal/region"
	"github.com/jonboulle/clockwork"
)

// fixtureTime pins processed_at so regenerated fixtures diff cleanly.
var fixtureTime = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "data/mock/job_postings.jsonl", "JSON-lines mock crawl")
	out := flag.String("out", "", "output path for the tagged fixture")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	domain.SetClock(clockwork.NewFakeClockAt(fixtureTime))
	defer domain.SetClock(nil)

	src, err := os.ReadFile(*in)
	if err != nil {
		return fmt.Errorf("read %s: %w", *in, err)
	}

	tables, err := gazetteer.Default()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	transformer := pipeline.NewTransformer(
		region.NewCascade(tables),
		geo.NewResolver(tables),
		observability.NewMetricsForTesting(),
		logger,
	)

	var buf bytes.Buffer
	perProvince := map[string]int{}
	scanner := bufio.NewScanner(bytes.NewReader(src))
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		event, err := transformer.Transform(context.Background(), domain.RawEvent{Value: raw})
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		buf.Write(event.Value)
		buf.WriteByte('\n')
		perProvince[event.Headers["province"]]++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", *in, err)
	}

	if err := os.WriteFile(*out, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	log.Printf("wrote tagged fixture: %s", *out)

	printStats(perProvince)
	return nil
}

func printStats(perProvince map[string]int) {
	provinces := make([]string, 0, len(perProvince))
	for p := range perProvince {
		provinces = append(provinces, p)
	}
	sort.Strings(provinces)

	total := 0
	for _, p := range provinces {
		name := p
		if name == "" {
			name = "(unrecognized)"
		}
		log.Printf("  %-16s %d", name, perProvince[p])
		total += perProvince[p]
	}
	log.Printf("total: %d postings", total)
}
