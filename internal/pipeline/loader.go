package pipeline

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/estateplan/internal/model"
	"github.com/theirongolddev/estateplan/internal/source"
)

// LoadResult holds the output of the full case loading pipeline.
type LoadResult struct {
	Cases       []model.Case
	TotalFiles  int
	ParsedFiles int
	ParseErrors int
	FileErrors  int
	FolderCount int
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Load discovers and parses all case files under casesDir.
// It uses a bounded worker pool for parallel parsing.
func Load(casesDir string, progressFn ProgressFunc) (*LoadResult, error) {
	files, err := source.ScanDir(casesDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", casesDir, err)
	}

	result := &LoadResult{
		TotalFiles:  len(files),
		FolderCount: source.CountFolders(files),
	}
	if len(files) == 0 {
		return result, nil
	}

	results := parseAll(files, func(n int) {
		if progressFn != nil {
			progressFn(n, len(files))
		}
	})

	for _, pr := range results {
		if pr.Err != nil {
			result.FileErrors++
			continue
		}
		result.ParsedFiles++
		result.ParseErrors += pr.ParseErrors
		result.Cases = append(result.Cases, pr.Case)
	}

	return result, nil
}

// parseAll parses files with GOMAXPROCS workers. Results keep input order.
// done is called with the running count after each file.
func parseAll(files []source.DiscoveredFile, done func(n int)) []source.ParseResult {
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make([]source.ParseResult, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range files {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = source.ParseFile(files[idx])
				done(int(processed.Add(1)))
			}
		}()
	}

	wg.Wait()
	return results
}
