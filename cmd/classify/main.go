// Command classify routes a shipment spreadsheet from the command line and
// writes one xlsx per category.
//
// Usage:
//
//	classify -in orders.xlsx -out ./sorted [-rules rules.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/shipsort/internal/core"
	"github.com/JonMunkholm/shipsort/internal/logging"
	"github.com/JonMunkholm/shipsort/internal/sheet"
)

func main() {
	in := flag.String("in", "", "input spreadsheet (.xlsx, .xls or .csv)")
	out := flag.String("out", ".", "output directory")
	rulesFile := flag.String("rules", os.Getenv("RULES_FILE"), "YAML rule file; empty uses the built-in rules")
	logLevel := flag.String("log-level", "warn", "log level: debug, info, warn, error")
	flag.Parse()

	logging.Setup(*logLevel, "text", os.Getenv("NO_COLOR") != "")

	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*in, *out, *rulesFile); err != nil {
		slog.Error("classify failed", "file", *in, logging.Err(err))
		fmt.Fprintln(os.Stderr, core.FormatUserError(err))
		os.Exit(1)
	}
}

func run(in, out, rulesFile string) error {
	rules, err := core.LoadRuleSet(rulesFile)
	if err != nil {
		return err
	}
	classifier, err := core.NewClassifier(rules)
	if err != nil {
		return err
	}

	service, err := core.NewService(core.ServiceConfig{
		Classifier: classifier,
		Reader:     sheet.Reader{},
		Exporter:   sheet.Exporter{},
	})
	if err != nil {
		return err
	}

	f, err := os.Open(in)
	if err != nil {
		return err
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), core.ClassifyTimeout)
	defer cancel()

	result, err := service.ClassifyFile(ctx, filepath.Base(in), f)
	if err != nil {
		return err
	}

	files, err := service.ExportAll(ctx, result)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(out, 0o755); err != nil {
		return err
	}

	fmt.Printf("%s: %d rows, address column %q\n", result.FileName, result.Summary.Total, result.AddressColumn)
	for _, c := range core.Categories {
		path := filepath.Join(out, c.FileName())
		if err := os.WriteFile(path, files[c], 0o644); err != nil {
			return err
		}
		fmt.Printf("  %-16s %6d  %s\n", c.Label(), result.Summary.Count(c), path)
	}
	return nil
}
