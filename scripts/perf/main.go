// SPDX-License-Identifier: MIT
// Benchmark tracking harness: runs the package benchmarks, stores raw
// logs plus a jsonl history, and prints per-benchmark deltas against
// the previous recorded run.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/skaphos/fleetpull/internal/strutil"
)

type benchMetric struct {
	NsPerOp     float64 `json:"ns_per_op"`
	BPerOp      float64 `json:"b_per_op,omitempty"`
	AllocsPerOp float64 `json:"allocs_per_op,omitempty"`
}

type benchRecord struct {
	Timestamp  string                 `json:"timestamp"`
	Commit     string                 `json:"commit"`
	GoVersion  string                 `json:"go_version"`
	Packages   []string               `json:"packages"`
	Bench      string                 `json:"bench"`
	Benchtime  string                 `json:"benchtime"`
	Count      int                    `json:"count"`
	Benchmarks map[string]benchMetric `json:"benchmarks"`
}

var benchLine = regexp.MustCompile(`^(Benchmark\S+)\s+\d+\s+([0-9.]+)\s+ns/op(?:\s+([0-9.]+)\s+B/op\s+([0-9.]+)\s+allocs/op)?`)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("perf", flag.ContinueOnError)
	historyPath := fs.String("history", "perf/history.jsonl", "path to benchmark history jsonl")
	rawDir := fs.String("raw-dir", "perf/runs", "directory for raw benchmark logs")
	packageCSV := fs.String("packages", "./internal/engine,./internal/gitx", "comma-separated benchmark packages")
	benchPattern := fs.String("bench", ".", "go test -bench pattern")
	benchtime := fs.String("benchtime", "1x", "go test benchmark time (for example: 1x, 500ms, 2s)")
	count := fs.Int("count", 5, "go test benchmark count")
	if err := fs.Parse(args); err != nil {
		return err
	}

	packages := strutil.SplitCSV(*packageCSV)
	if len(packages) == 0 {
		return fmt.Errorf("no benchmark packages provided")
	}

	raw, err := runBenchmarks(packages, *benchPattern, *benchtime, *count)
	if err != nil {
		return err
	}
	metrics, err := parseBenchMetrics(raw)
	if err != nil {
		return err
	}

	record := benchRecord{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Commit:     gitShortCommit(),
		GoVersion:  goVersion(),
		Packages:   packages,
		Bench:      *benchPattern,
		Benchtime:  *benchtime,
		Count:      *count,
		Benchmarks: metrics,
	}

	if err := os.MkdirAll(*rawDir, 0o755); err != nil {
		return fmt.Errorf("create raw dir: %w", err)
	}
	rawFile := filepath.Join(*rawDir, time.Now().UTC().Format("20060102T150405Z")+".txt")
	if err := os.WriteFile(rawFile, []byte(raw), 0o644); err != nil {
		return fmt.Errorf("write raw log: %w", err)
	}

	// A missing or unreadable history just means no baseline to diff.
	previous, _ := lastRecord(*historyPath)
	if err := appendHistory(*historyPath, record); err != nil {
		return fmt.Errorf("append history: %w", err)
	}

	fmt.Fprintf(out, "saved raw benchmark log: %s\n", rawFile)
	fmt.Fprintf(out, "updated benchmark history: %s\n", *historyPath)
	printDelta(out, record, previous)
	return nil
}

func runBenchmarks(packages []string, bench, benchtime string, count int) (string, error) {
	args := []string{
		"test",
		"-run=^$",
		"-bench=" + bench,
		"-benchmem",
		"-benchtime=" + benchtime,
		"-count=" + strconv.Itoa(count),
	}
	args = append(args, packages...)
	cmd := exec.Command("go", args...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("benchmark run failed: %w\n%s", err, output.String())
	}
	return output.String(), nil
}

func parseBenchMetrics(raw string) (map[string]benchMetric, error) {
	metrics := make(map[string]benchMetric)
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		match := benchLine.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if len(match) == 0 {
			continue
		}
		entry := benchMetric{NsPerOp: parseFloat(match[2])}
		if match[3] != "" {
			entry.BPerOp = parseFloat(match[3])
			entry.AllocsPerOp = parseFloat(match[4])
		}
		metrics[match[1]] = entry
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(metrics) == 0 {
		return nil, fmt.Errorf("no benchmark metrics found in output")
	}
	return metrics, nil
}

func parseFloat(v string) float64 {
	out, _ := strconv.ParseFloat(v, 64)
	return out
}

func gitShortCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

func goVersion() string {
	out, err := exec.Command("go", "version").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

func appendHistory(path string, record benchRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	line, err := json.Marshal(record)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return err
	}
	return nil
}

func lastRecord(path string) (*benchRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	scanner := bufio.NewScanner(f)
	var last string
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			last = line
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if last == "" {
		return nil, fmt.Errorf("history file is empty")
	}
	var record benchRecord
	if err := json.Unmarshal([]byte(last), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// printDelta lists ns/op per benchmark, name-sorted so successive runs
// diff cleanly, with the percentage change against the previous record
// where one exists.
func printDelta(out io.Writer, current benchRecord, previous *benchRecord) {
	names := make([]string, 0, len(current.Benchmarks))
	for name := range current.Benchmarks {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(out, "benchmark summary (ns/op):")
	for _, name := range names {
		metric := current.Benchmarks[name]
		if previous != nil {
			if prev, ok := previous.Benchmarks[name]; ok && prev.NsPerOp != 0 {
				deltaPct := ((metric.NsPerOp - prev.NsPerOp) / prev.NsPerOp) * 100
				fmt.Fprintf(out, "  %-40s %.2f (%+.2f%% vs previous)\n", name, metric.NsPerOp, deltaPct)
				continue
			}
		}
		fmt.Fprintf(out, "  %-40s %.2f\n", name, metric.NsPerOp)
	}
}
