package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/a3tai/mcp-remit-reader/internal/config"
	"github.com/a3tai/mcp-remit-reader/internal/export"
	"github.com/a3tai/mcp-remit-reader/internal/extract"
	"github.com/a3tai/mcp-remit-reader/internal/logging"
)

const program = "remit-extract"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(program, flag.ContinueOnError)
	fs.SetOutput(stderr)
	outputFormat := fs.String("format", "xlsx", "Output format: csv, xlsx, json")
	outputPath := fs.String("o", "", "Output file (default: input path with the format's extension, - for stdout)")
	maxFileSize := fs.Int64("max-file-size", config.DefaultMaxFileSize, "Maximum PDF file size in bytes")
	verbose := fs.Bool("verbose", false, "Log progress and per-block diagnostics to stderr")
	fs.Usage = func() { printUsage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(stderr, "Error: exactly one PDF file path required\n\n")
		printUsage(stderr, fs)
		return 2
	}

	format, err := export.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger := logging.New(stderr, level, config.LogFormatText)

	input := fs.Arg(0)
	svc := extract.NewService(*maxFileSize, extract.WithLogger(logger))

	start := time.Now()
	rep, err := svc.ExtractFile(ctx, input)
	if err != nil {
		fmt.Fprintf(stderr, "Error extracting claims: %v\n", err)
		return 1
	}

	target := *outputPath
	if target == "" {
		target = export.OutputPath(input, format)
	}
	if err := writeOutput(svc, rep, format, target, stdout); err != nil {
		fmt.Fprintf(stderr, "Error writing output: %v\n", err)
		return 1
	}

	printSummary(stderr, rep, target, time.Since(start), logger)
	return 0
}

func writeOutput(svc *extract.Service, rep *extract.Report, format export.Format, target string, stdout io.Writer) error {
	if target == "-" {
		return svc.Export(stdout, format, rep)
	}

	f, err := os.Create(target)
	if err != nil {
		return err
	}
	if err := svc.Export(f, format, rep); err != nil {
		f.Close()
		_ = os.Remove(target)
		return err
	}
	return f.Close()
}

func printSummary(w io.Writer, rep *extract.Report, target string, elapsed time.Duration, logger *slog.Logger) {
	if target != "-" {
		fmt.Fprintf(w, "Wrote %d record(s) to %s\n", len(rep.Records), target)
	}
	fmt.Fprintf(w, "Pages: %d, multi-page blocks: %d, elapsed: %s\n",
		rep.Stats.Pages, rep.Stats.Stitched, elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Charge total: %s, payment total: %s\n",
		rep.Summary.ChargeTotal.StringFixed(2), rep.Summary.PaymentTotal.StringFixed(2))

	if degraded := rep.Stats.Unresolved + rep.Stats.Truncated; degraded > 0 {
		fmt.Fprintf(w, "Warning: %d block(s) with incomplete service lines\n", degraded)
	}
	if rep.Summary.Skipped > 0 {
		fmt.Fprintf(w, "Warning: %d amount(s) could not be totalled\n", rep.Summary.Skipped)
	}
	logger.Debug("cli.done", "run_id", rep.RunID)
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Remit Extract - Convert remittance advice PDFs into claim spreadsheets")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintf(w, "  %s [OPTIONS] <pdf_file>\n", program)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OPTIONS:")
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "EXAMPLES:")
	fmt.Fprintf(w, "  %s remits/acme.pdf\n", program)
	fmt.Fprintf(w, "  %s -format csv -o claims.csv remits/acme.pdf\n", program)
	fmt.Fprintf(w, "  %s -format json -o - remits/acme.pdf | jq '.[0]'\n", program)
}
