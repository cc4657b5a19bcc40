package main

import (
	"fmt"
	"slices"
	"time"
)

type result struct {
	Latency      time.Duration
	Err          error
	Intent       string
	Confidence   float64
	Citations    int
	Streamed     bool
	StreamOK     bool
	StreamTokens int
}

func (r result) line(q string) string {
	if r.Err != nil {
		return fmt.Sprintf("- [ERR] %dms | %v | %s", r.Latency.Milliseconds(), r.Err, q)
	}
	s := fmt.Sprintf("- [OK] %dms | intent=%s (%.3f) | citations=%d", r.Latency.Milliseconds(), r.Intent, r.Confidence, r.Citations)
	if r.Streamed {
		s += fmt.Sprintf(" | stream=%t tokens=%d", r.StreamOK, r.StreamTokens)
	}
	return s + " | " + q
}

type summary struct {
	Total        int
	Passed       int
	StreamsOK    int
	P50          time.Duration
	P95          time.Duration
	AvgCitations float64
}

// summarize aggregates successful queries; failed ones only count toward Total.
func summarize(results []result) summary {
	s := summary{Total: len(results)}
	var latencies []time.Duration
	citations := 0
	for _, r := range results {
		if r.StreamOK {
			s.StreamsOK++
		}
		if r.Err != nil {
			continue
		}
		s.Passed++
		citations += r.Citations
		latencies = append(latencies, r.Latency)
	}
	if s.Passed == 0 {
		return s
	}
	slices.Sort(latencies)
	s.P50 = percentile(latencies, 0.50)
	s.P95 = percentile(latencies, 0.95)
	s.AvgCitations = float64(citations) / float64(s.Passed)
	return s
}

// percentile uses the nearest-rank method on sorted values.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(p*float64(len(sorted)) + 0.999999)
	rank = min(max(rank, 1), len(sorted))
	return sorted[rank-1]
}
