package source

import (
	"os"
	"path/filepath"
	"strings"
)

// ScanDir walks the cases directory and discovers all JSON case files.
// A missing directory yields no files and no error.
func ScanDir(casesDir string) ([]DiscoveredFile, error) {
	info, err := os.Stat(casesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	var files []DiscoveredFile

	err = filepath.WalkDir(casesDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // intentionally skip unreadable entries
		}
		name := d.Name()
		if d.IsDir() {
			// Skip .git, .trash and other hidden folders
			if path != casesDir && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), ".json") {
			return nil
		}

		rel, _ := filepath.Rel(casesDir, path)
		parts := strings.Split(rel, string(filepath.Separator))

		df := DiscoveredFile{
			Path:   path,
			CaseID: strings.TrimSuffix(name, filepath.Ext(name)),
		}
		if len(parts) > 1 {
			df.Folder = parts[0]
		}

		files = append(files, df)
		return nil
	})

	return files, err
}

// CountFolders returns the number of distinct top-level folders in a set of discovered files.
func CountFolders(files []DiscoveredFile) int {
	seen := make(map[string]struct{})
	for _, f := range files {
		seen[f.Folder] = struct{}{}
	}
	return len(seen)
}
