package intent

import (
	"cmp"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// Metrics are per-intent precision, recall and F1.
type Metrics struct {
	Intent    ID      `json:"intent"`
	Support   int     `json:"support"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Confusion counts how often Expected was predicted as Predicted.
type Confusion struct {
	Expected  ID  `json:"expected"`
	Predicted ID  `json:"predicted"`
	Count     int `json:"count"`
}

// Report summarises an evaluation run.
type Report struct {
	Total      int         `json:"total"`
	Correct    int         `json:"correct"`
	Skipped    []string    `json:"skipped,omitempty"`
	Accuracy   float64     `json:"accuracy"`
	MacroF1    float64     `json:"macroF1"`
	PerIntent  []Metrics   `json:"perIntent"`
	Confusions []Confusion `json:"confusions"`
}

// Classify is the function under evaluation.
type Classify func(ctx context.Context, query string) (Result, error)

// LoadEvalCSV reads "query,expected_intent" rows. A header row is skipped when present.
func LoadEvalCSV(r io.Reader) ([]Example, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var out []Example
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("line %d: expected 2 columns, got %d", line, len(record))
		}
		query, expected := strings.TrimSpace(record[0]), strings.TrimSpace(record[1])
		if line == 1 && strings.EqualFold(query, "query") {
			continue
		}
		out = append(out, Example{Intent: ID(expected), Text: query})
	}
	return out, nil
}

// Evaluate classifies every row and computes accuracy, macro-F1 and the top confusions.
// Rows whose expected intent is not in the taxonomy are skipped and listed in the report.
func Evaluate(ctx context.Context, classify Classify, rows []Example, topConfusions int) (Report, error) {
	var report Report
	tp := make(map[ID]int)
	fp := make(map[ID]int)
	fn := make(map[ID]int)
	support := make(map[ID]int)
	confusions := make(map[[2]ID]int)

	for _, row := range rows {
		if !row.Intent.Valid() {
			report.Skipped = append(report.Skipped, string(row.Intent))
			continue
		}
		res, err := classify(ctx, row.Text)
		if err != nil {
			return Report{}, fmt.Errorf("classify %q: %w", row.Text, err)
		}
		report.Total++
		support[row.Intent]++
		if res.TopIntent == row.Intent {
			report.Correct++
			tp[row.Intent]++
			continue
		}
		fp[res.TopIntent]++
		fn[row.Intent]++
		confusions[[2]ID{row.Intent, res.TopIntent}]++
	}
	if report.Total == 0 {
		return report, nil
	}
	report.Accuracy = float64(report.Correct) / float64(report.Total)

	labels := make(map[ID]struct{})
	for _, m := range []map[ID]int{tp, fp, fn} {
		for id := range m {
			labels[id] = struct{}{}
		}
	}
	var f1Sum float64
	for id := range labels {
		m := Metrics{Intent: id, Support: support[id]}
		if d := tp[id] + fp[id]; d > 0 {
			m.Precision = float64(tp[id]) / float64(d)
		}
		if d := tp[id] + fn[id]; d > 0 {
			m.Recall = float64(tp[id]) / float64(d)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		f1Sum += m.F1
		report.PerIntent = append(report.PerIntent, m)
	}
	report.MacroF1 = f1Sum / float64(len(labels))
	slices.SortFunc(report.PerIntent, func(a, b Metrics) int { return cmp.Compare(a.Intent, b.Intent) })

	for pair, count := range confusions {
		report.Confusions = append(report.Confusions, Confusion{Expected: pair[0], Predicted: pair[1], Count: count})
	}
	slices.SortFunc(report.Confusions, func(a, b Confusion) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Expected, b.Expected); c != 0 {
			return c
		}
		return cmp.Compare(a.Predicted, b.Predicted)
	})
	if topConfusions > 0 && len(report.Confusions) > topConfusions {
		report.Confusions = report.Confusions[:topConfusions]
	}
	return report, nil
}
