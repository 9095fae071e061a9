// Command regionaudit checks how well the region extractor covers a crawl.
// It reads JSON-lines postings, tags each one, and reports coverage,
// expected-province mismatches, ambiguous place names seen, and a cluster
// summary.
//
// Usage:
//
//	go run ./cmd/regionaudit \
//	  -input data/mock/job_postings.jsonl \
//	  -max-unrecognized 0.1
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/couchcryptid/jobmap-region/internal/gazetteer"
	"github.com/schollz/progressbar/v3"
)

type options struct {
	input           string
	gazetteerPath   string
	maxUnrecognized float64
	top             int
	quiet           bool
}

func main() {
	var opts options
	flag.StringVar(&opts.input, "input", "data/mock/job_postings.jsonl", "JSON-lines file of crawled postings")
	flag.StringVar(&opts.gazetteerPath, "gazetteer", "", "region tables YAML (embedded tables when empty)")
	flag.Float64Var(&opts.maxUnrecognized, "max-unrecognized", 0.1, "fail when the unrecognized ratio exceeds this")
	flag.IntVar(&opts.top, "top", 10, "clusters listed per level in the summary")
	flag.BoolVar(&opts.quiet, "quiet", false, "hide the progress bar")
	flag.Parse()

	if opts.input == "" || opts.maxUnrecognized < 0 || opts.maxUnrecognized > 1 {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(opts, os.Stdout, os.Stderr); code != 0 {
		os.Exit(code)
	}
}

func run(opts options, stdout, stderr io.Writer) int {
	tables, err := gazetteer.Load(opts.gazetteerPath)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: %v\n", err)
		return 1
	}

	f, err := os.Open(opts.input)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: open input: %v\n", err)
		return 1
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: stat input: %v\n", err)
		return 1
	}

	bar := progressbar.NewOptions64(
		stat.Size(),
		progressbar.OptionSetDescription("tagging postings"),
		progressbar.OptionSetWriter(stderr),
		progressbar.OptionSetVisibility(!opts.quiet),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(stderr)
		}),
	)

	a := newAuditor(tables, opts.maxUnrecognized)
	if err := a.readPostings(f, bar); err != nil {
		fmt.Fprintf(stderr, "FATAL: %v\n", err)
		return 1
	}
	_ = bar.Finish()

	rep := a.report()
	rep.print(stdout, opts.top)
	if !rep.passed() {
		return 1
	}
	return 0
}
