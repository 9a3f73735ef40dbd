// Package main provides a performance benchmarking tool for the motionwin CLI.
// It generates synthetic sensor captures of increasing size and measures the
// execution time of ingest and bulk analysis on each one, running every test
// multiple times, treating the first successful store-backed run as cold and
// averaging the rest as warm, generating CSV output for performance analysis.
//
// Prerequisites:
// - motionwin binary installed and available in PATH
//
// Usage: go run benchmark/main.go [data-dir]
//
//	data-dir: Directory the synthetic captures are written to (default: system temp dir)
package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-store average, cold run and average of warm runs).
type BenchmarkResult struct {
	Dataset     string
	Command     string
	NoStoreTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	DataDir     string
	Timeout     time.Duration
	Workers     int
	NoStoreRuns int
	StoreRuns   int
	Datasets    map[string]int
	Order       []string
	Commands    map[string]string
}

func main() {
	dataDir := os.TempDir()
	switch len(os.Args) {
	case 1:
	case 2:
		dataDir = os.Args[1]
	default:
		fmt.Printf("Usage: %s [data-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		DataDir:     dataDir,
		Timeout:     5 * time.Minute,
		Workers:     14,
		NoStoreRuns: 3,
		StoreRuns:   4,
		Datasets: map[string]int{
			"small":  10_000,
			"medium": 100_000,
			"large":  1_000_000,
		},
		Order: []string{"small", "medium", "large"},
		Commands: map[string]string{
			"ingest":  "ingest --window-size 50 --window-overlap 25",
			"literal": "analyze --window-size 50 --bulk-mode literal",
			"sliding": "analyze --window-size 50 --window-overlap 25 --bulk-mode sliding",
		},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	// Clear the store using motionwin store clear
	fmt.Printf("Clearing store...\n")
	clearCmd := exec.Command("motionwin", "store", "clear", "--store-backend", "sqlite")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear store: %v\nOutput: %s\n", err, string(output))
	} else {
		fmt.Printf("Store cleared successfully\n")
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(config, results)
}

// checkPrerequisites verifies that the motionwin binary exists and writes missing captures
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("motionwin"); err != nil {
		return fmt.Errorf("motionwin binary not found in PATH")
	}

	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return fmt.Errorf("cannot create data dir %s: %w", config.DataDir, err)
	}

	for _, name := range config.Order {
		path := datasetPath(config, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		fmt.Printf("Generating %s capture (%d records)\n", name, config.Datasets[name])
		if err := writeCapture(path, config.Datasets[name]); err != nil {
			return fmt.Errorf("failed to generate %s: %w", path, err)
		}
	}

	return nil
}

func datasetPath(config BenchmarkConfig, name string) string {
	return filepath.Join(config.DataDir, fmt.Sprintf("motionwin_bench_%s.csv", name))
}

// writeCapture writes n synthetic accelerometer records with a spike every 70 samples
func writeCapture(path string, n int) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	w := bufio.NewWriter(file)
	if _, err := fmt.Fprintln(w, "athlete:string,session:string,accel:real,timestamp:int"); err != nil {
		return err
	}
	for i := range n {
		accel := math.Sin(float64(i) / 7)
		if i%70 == 69 {
			accel = 4.0
		}
		session := fmt.Sprintf("S%d", i/10_000+1)
		if _, err := fmt.Fprintf(w, "A1,%s,%.3f,%d\n", session, accel, 1000+10*i); err != nil {
			return err
		}
	}
	return w.Flush()
}

// runBenchmarks executes all benchmark tests across configured datasets
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d datasets, %v timeout, %d workers, no-store: %d runs, store: %d runs\n",
		len(config.Order), config.Timeout, config.Workers, config.NoStoreRuns, config.StoreRuns)

	for _, name := range config.Order {
		fmt.Printf("Benchmarking %s\n", name)
		path := datasetPath(config, name)

		for _, command := range []string{"ingest", "literal", "sliding"} {
			result := runBenchmarkSuite(config, name, path, command, config.Commands[command])
			results = append(results, result)
		}
	}

	return results
}

// runBenchmarkSuite runs both no-store and store-backed benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, dataset, path, command, extraArgs string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", command, dataset)

	// Helper to run a benchmark phase
	runPhase := func(storeBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, path, extraArgs, storeBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avg := sum / float64(len(times))
			avgTime = fmt.Sprintf("%.3fs", avg)
		}
		return cold, avgTime
	}

	// Phase 1: No-store runs
	_, noStoreAvg := runPhase("none", config.NoStoreRuns, "No-store")

	// Phase 2: Store-backed runs
	coldTime, warmAvg := runPhase("sqlite", config.StoreRuns, "Store")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-store average: %s, Cold time: %s, Warm average: %s\n", noStoreAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Dataset:     dataset,
		Command:     command,
		NoStoreTime: noStoreAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a motionwin command multiple times with the given store backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, path, extraArgs, storeBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	outFile := filepath.Join(config.DataDir, "motionwin_bench_out.csv")

	args := strings.Fields(extraArgs)
	args = append(args, path,
		"--store-backend", storeBackend,
		"--workers", fmt.Sprint(config.Workers),
		"--output", "csv",
		"--output-file", outFile,
	)

	var times []float64
	for run := 1; run <= numRuns; run++ {
		_ = os.Remove(outFile)
		start := time.Now()

		cmd := exec.Command("motionwin", args...)
		cmd.Dir = config.DataDir

		done := make(chan bool, 1)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(outFile) {
				times = append(times, time.Since(start).Seconds())
			} else if cmdErr != nil {
				fmt.Printf("    run %d failed: %v\n%s", run, cmdErr, output)
			}
		case <-time.After(config.Timeout):
			// Timeout - don't add to times
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks that the run left a non-empty analysis file behind
func isSuccess(outFile string) bool {
	info, err := os.Stat(outFile)
	return err == nil && info.Size() > 0
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/motionwin_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"dataset", "cmd", "no_store_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		if err := writer.Write([]string{result.Dataset, result.Command, result.NoStoreTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCommandSummary(results, "ingest", "Ingest:")
	printCommandSummary(results, "literal", "Literal Bulk Analysis:")
	printCommandSummary(results, "sliding", "Sliding Bulk Analysis:")

	fmt.Printf("Captures kept in %s\n", config.DataDir)
	fmt.Printf("Benchmark script completed successfully\n")
}

// printCommandSummary displays results for a specific command type
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-8s: No-store: %s, Cold: %s, Warm: %s\n", result.Dataset, result.NoStoreTime, result.ColdTime, result.WarmTime)
		}
	}
}
