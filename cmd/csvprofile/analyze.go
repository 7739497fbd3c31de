package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/JonMunkholm/csvstats/internal/profile"
	"github.com/JonMunkholm/csvstats/internal/report"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func runAnalyze(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	comma, err := parseDelimiter(delimiterFlag)
	if err != nil {
		return err
	}

	input, size, name, err := openInput(args[0])
	if err != nil {
		return err
	}
	defer input.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var r io.Reader = input
	var bar *progressbar.ProgressBar
	if !noProgressFlag {
		bar = newProgressBar(size, name)
		r = io.TeeReader(input, bar)
	}

	src := profile.NewCSVSource(r, size, profile.CSVOptions{
		Comma:            comma,
		LazyQuotes:       lazyQuotesFlag,
		TrimLeadingSpace: trimSpaceFlag,
	})

	start := time.Now()
	slog.Debug("analysis started", "file", name, "size", size)

	result, err := profile.Start(src, profile.Options{}).Wait(ctx)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("analyze %s: %w", name, err)
	}

	slog.Info("analysis completed",
		"file", name,
		"rows", result.TotalRows,
		"columns", result.ColumnCount(),
		"bytes", src.Input().BytesRead(),
		"duration", time.Since(start),
	)

	return report.Write(cmd.OutOrStdout(), result, format)
}

// openInput opens path, or stdin for "-". size is -1 when unknown.
func openInput(path string) (io.ReadCloser, int64, string, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), -1, "stdin", nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, "", fmt.Errorf("open input: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, "", fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, 0, "", fmt.Errorf("input is a directory: %s", path)
	}
	return f, info.Size(), path, nil
}

// parseDelimiter accepts a single character or the escape `\t`.
func parseDelimiter(s string) (rune, error) {
	if s == `\t` {
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	return r, nil
}

// newProgressBar shows bytes read on stderr; unknown sizes get a spinner.
func newProgressBar(size int64, name string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(name),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "",
			BarEnd:        "",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}
