package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/theirongolddev/estateplan/internal/source"
	"github.com/theirongolddev/estateplan/internal/store"
)

// CachedLoadResult extends LoadResult with cache metadata.
type CachedLoadResult struct {
	LoadResult
	CacheHits int
	Reparsed  int
	Pruned    int
}

// LoadWithCache discovers case files, diffs them against the cache by mtime
// and size, parses only changed files, and returns the combined result set.
// Cache rows for files that no longer exist are pruned.
func LoadWithCache(casesDir string, cache *store.Cache, progressFn ProgressFunc) (*CachedLoadResult, error) {
	files, err := source.ScanDir(casesDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", casesDir, err)
	}

	result := &CachedLoadResult{
		LoadResult: LoadResult{
			TotalFiles:  len(files),
			FolderCount: source.CountFolders(files),
		},
	}

	tracked, err := cache.GetTrackedFiles()
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	// Diff: partition into changed and unchanged
	var toReparse []source.DiscoveredFile
	unchanged := make(map[string]struct{})
	present := make(map[string]struct{}, len(files))

	for _, f := range files {
		present[f.Path] = struct{}{}
		info, err := os.Stat(f.Path)
		if err != nil {
			continue
		}

		cached, ok := tracked[f.Path]
		if ok && cached.MtimeNs == info.ModTime().UnixNano() && cached.SizeBytes == info.Size() {
			unchanged[f.Path] = struct{}{}
		} else {
			toReparse = append(toReparse, f)
		}
	}

	for path := range tracked {
		if _, ok := present[path]; ok {
			continue
		}
		if err := cache.DeleteCase(path); err != nil {
			return nil, fmt.Errorf("pruning %s: %w", path, err)
		}
		if err := cache.DeleteFileTracker(path); err != nil {
			return nil, fmt.Errorf("pruning %s: %w", path, err)
		}
		result.Pruned++
	}

	result.CacheHits = len(unchanged)
	result.Reparsed = len(toReparse)

	if len(unchanged) > 0 {
		cached, err := cache.LoadAllCases()
		if err != nil {
			return nil, fmt.Errorf("loading cached cases: %w", err)
		}
		for _, cc := range cached {
			if _, ok := unchanged[cc.Case.FilePath]; ok {
				result.Cases = append(result.Cases, cc.Case)
				result.ParseErrors += cc.ParseErrors
				result.ParsedFiles++
			}
		}
	}

	if len(toReparse) == 0 {
		return result, nil
	}

	results := parseAll(toReparse, func(n int) {
		if progressFn != nil {
			progressFn(n+result.CacheHits, result.TotalFiles)
		}
	})

	for i, pr := range results {
		if pr.Err != nil {
			result.FileErrors++
			continue
		}
		result.ParsedFiles++
		result.ParseErrors += pr.ParseErrors
		result.Cases = append(result.Cases, pr.Case)

		info, err := os.Stat(toReparse[i].Path)
		if err == nil {
			_ = cache.SaveCase(pr.Case, pr.ParseErrors, info.ModTime().UnixNano(), info.Size())
		}
	}

	return result, nil
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "estateplan")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "estateplan")
}

// CachePath returns the full path to the cache database. The v2 file
// stores asset values as exact decimal text.
func CachePath() string {
	return filepath.Join(CacheDir(), "cases-v2.db")
}
