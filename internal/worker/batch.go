package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/foodlens/internal/model"
)

const batchBucket = "batch"

// Scanner resolves and analyzes one product query
type Scanner interface {
	Scan(ctx context.Context, query string) (*model.Report, error)
}

// ScanJob represents a single product query in a batch
type ScanJob struct {
	Index   int
	Query   string
	Scanner Scanner
	Limiter *Limiter
}

// Execute executes the scan job
func (j *ScanJob) Execute(ctx context.Context) Result {
	if j.Limiter != nil {
		if err := j.Limiter.WaitKey(ctx, batchBucket); err != nil {
			return &ScanResult{Index: j.Index, Query: j.Query, Error: err}
		}
	}

	report, err := j.Scanner.Scan(ctx, j.Query)
	if err != nil {
		return &ScanResult{Index: j.Index, Query: j.Query, Error: err}
	}
	return &ScanResult{Index: j.Index, Query: j.Query, Report: report}
}

// ScanResult represents the result of a scan job
type ScanResult struct {
	Index  int
	Query  string
	Report *model.Report
	Error  error
}

// GetError returns the error from the scan result
func (r *ScanResult) GetError() error {
	return r.Error
}

// BatchProcessor scans many product queries concurrently
type BatchProcessor struct {
	scanner     Scanner
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a new batch processor. A non-positive
// requestsPerSecond leaves job starts unthrottled.
func NewBatchProcessor(scanner Scanner, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	b := &BatchProcessor{
		scanner:     scanner,
		concurrency: concurrency,
	}
	if requestsPerSecond > 0 {
		b.limiter = NewLimiter(requestsPerSecond, burst)
	}
	return b
}

// ProcessQueries scans every query and returns results in input order
func (b *BatchProcessor) ProcessQueries(ctx context.Context, queries []string) []*ScanResult {
	if len(queries) == 0 {
		return []*ScanResult{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	for i, query := range queries {
		pool.Submit(&ScanJob{
			Index:   i,
			Query:   query,
			Scanner: b.scanner,
			Limiter: b.limiter,
		})
	}

	results := pool.Wait()

	scanResults := make([]*ScanResult, 0, len(results))
	for _, result := range results {
		if sr, ok := result.(*ScanResult); ok {
			scanResults = append(scanResults, sr)
		}
	}
	sort.Slice(scanResults, func(i, j int) bool {
		return scanResults[i].Index < scanResults[j].Index
	})

	return scanResults
}

// ProcessFile reads queries from a file and scans them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ScanResult, error) {
	queries, err := ReadQueriesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}

	return b.ProcessQueries(ctx, queries), nil
}

// ReadQueriesFromFile reads product queries (barcodes, names or ingredient
// lists), one per line. Blank lines, # comments and duplicates are skipped.
func ReadQueriesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var queries []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			queries = append(queries, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return queries, nil
}
