package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"portfolio-rag/internal/config"
	"portfolio-rag/internal/intent"
	"portfolio-rag/internal/llm"
)

const topConfusions = 10

type cliOptions struct {
	csvPath string
	rerank  bool
	asJSON  bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		log.Fatalf("evalintents: %v", err)
	}
	if err := run(opts); err != nil {
		log.Fatalf("evalintents: %v", err)
	}
}

func parseFlags() (cliOptions, error) {
	var opts cliOptions
	flag.BoolVar(&opts.rerank, "rerank", false, "Adjudicate close calls with the LLM before scoring")
	flag.BoolVar(&opts.asJSON, "json", false, "Print the report as JSON")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options] FILE.csv\n\nFILE.csv has query,expected_intent rows.\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	opts.csvPath = strings.TrimSpace(flag.Arg(0))
	if opts.csvPath == "" {
		flag.Usage()
		return opts, errors.New("missing CSV file")
	}
	return opts, nil
}

func run(opts cliOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(cfg.NewLogger())

	tuning, err := config.LoadTuning(cfg.TuningPath)
	if err != nil {
		return fmt.Errorf("load tuning: %w", err)
	}

	f, err := os.Open(opts.csvPath)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	rows, err := intent.LoadEvalCSV(f)
	_ = f.Close()
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	ctx := context.Background()
	embedder, err := llm.NewEmbedder(ctx, cfg.EmbedderConfig())
	if err != nil {
		return fmt.Errorf("init embedder: %w", err)
	}
	classifier := intent.NewClassifier(intent.NewCachedIndex(embedder, intent.DefaultExamples()), tuning.Intent)

	classify := intent.Classify(classifier.Classify)
	if opts.rerank {
		generator, err := llm.NewGenerator(ctx, cfg.GeneratorConfig())
		if err != nil {
			return fmt.Errorf("init generator: %w", err)
		}
		adjudicator := intent.NewAdjudicator(generator, tuning.Adjudicator)
		classify = func(ctx context.Context, query string) (intent.Result, error) {
			res, err := classifier.Classify(ctx, query)
			if err != nil {
				return res, err
			}
			res, _ = adjudicator.Rerank(ctx, query, res)
			return res, nil
		}
	}

	report, err := intent.Evaluate(ctx, classify, rows, topConfusions)
	if err != nil {
		return err
	}

	if opts.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return printReport(os.Stdout, report)
}

func printReport(out io.Writer, report intent.Report) error {
	fmt.Fprintf(out, "Evaluated: %d rows\n", report.Total)
	if len(report.Skipped) > 0 {
		fmt.Fprintf(out, "Skipped (unknown expected intent): %s\n", strings.Join(report.Skipped, ", "))
	}
	fmt.Fprintf(out, "Accuracy: %.3f\nMacro-F1: %.3f\n\n", report.Accuracy, report.MacroF1)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INTENT\tSUPPORT\tPRECISION\tRECALL\tF1")
	for _, m := range report.PerIntent {
		fmt.Fprintf(tw, "%s\t%d\t%.3f\t%.3f\t%.3f\n", m.Intent, m.Support, m.Precision, m.Recall, m.F1)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(report.Confusions) == 0 {
		return nil
	}
	fmt.Fprintln(out, "\nTop confusions:")
	for _, c := range report.Confusions {
		fmt.Fprintf(out, "  %s -> %s: %d\n", c.Expected, c.Predicted, c.Count)
	}
	return nil
}
