package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"portfolio-rag/internal/rag"
	"portfolio-rag/internal/ragclient"
)

var defaultQueries = []string{
	"jakie masz doświadczenie w usługach finansowych",
	"jakie masz doświadczenie w pracy dla mediów",
	"jakich narzędzi używałeś (Figma, Storybook)",
	"jak prowadzisz discovery / proces warsztatowy",
	"leadership/mentoring – przykłady",
	"opowiedz o wybranym case study i rezultatach",
}

type cliOptions struct {
	baseURL     string
	queriesPath string
	stream      bool
	timeout     time.Duration
}

func main() {
	opts := parseFlags()
	if err := run(opts); err != nil {
		log.Fatalf("smoke: %v", err)
	}
}

func parseFlags() cliOptions {
	var opts cliOptions
	flag.StringVar(&opts.baseURL, "url", envOr("SMOKE_BASE_URL", "http://localhost:9000"), "Base URL of the API server")
	flag.StringVar(&opts.queriesPath, "queries", "", "File with one query per line (default: built-in suite)")
	flag.BoolVar(&opts.stream, "stream", false, "Also run each query through the SSE stream")
	flag.DurationVar(&opts.timeout, "timeout", 60*time.Second, "Per-query timeout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options]\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	return opts
}

func run(opts cliOptions) error {
	queries := defaultQueries
	if opts.queriesPath != "" {
		var err error
		if queries, err = readQueries(opts.queriesPath); err != nil {
			return err
		}
	}

	client := ragclient.NewClient(opts.baseURL, 0)
	fmt.Printf("Smoke: endpoint = %s\n", opts.baseURL)

	var results []result
	for _, q := range queries {
		r := runOne(client, q, opts)
		results = append(results, r)
		fmt.Println(r.line(q))
	}

	s := summarize(results)
	fmt.Println("\nSummary:")
	fmt.Printf("- Passed: %d/%d\n", s.Passed, s.Total)
	fmt.Printf("- p50 latency: %dms\n", s.P50.Milliseconds())
	fmt.Printf("- p95 latency: %dms\n", s.P95.Milliseconds())
	fmt.Printf("- avg citations: %.2f\n", s.AvgCitations)
	if opts.stream {
		fmt.Printf("- streams completed: %d/%d\n", s.StreamsOK, s.Total)
	}

	if s.Passed < s.Total {
		return fmt.Errorf("%d of %d queries failed", s.Total-s.Passed, s.Total)
	}
	return nil
}

func runOne(client *ragclient.Client, q string, opts cliOptions) result {
	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	r := result{}
	start := time.Now()
	resp, err := client.Query(ctx, ragclient.QueryRequest{Message: q}, false)
	r.Latency = time.Since(start)
	if err != nil {
		r.Err = err
		return r
	}
	r.Intent = string(resp.Intent.ID)
	r.Confidence = resp.Intent.Confidence
	r.Citations = len(resp.Citations)

	if opts.stream {
		r.Streamed = true
		r.StreamOK, r.StreamTokens = checkStream(ctx, client, q)
	}
	return r
}

// checkStream reports whether the stream ended with a done event.
func checkStream(ctx context.Context, client *ragclient.Client, q string) (bool, int) {
	tokens := 0
	for event, err := range client.Stream(ctx, ragclient.QueryRequest{Message: q}) {
		if err != nil {
			return false, tokens
		}
		switch event.Type {
		case rag.EventToken:
			tokens++
		case rag.EventDone:
			return true, tokens
		case rag.EventError:
			return false, tokens
		}
	}
	return false, tokens
}

func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open queries: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}
	if len(out) == 0 {
		return nil, errors.New("queries file is empty")
	}
	return out, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
