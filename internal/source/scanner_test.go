package source

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanDir(t *testing.T) {
	root := t.TempDir()
	mustWrite := func(rel string) {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))
	}
	mustWrite("alpha.json")
	mustWrite("attorney-lee/beta.JSON")
	mustWrite("attorney-lee/2026/gamma.json")
	mustWrite("notes.txt")
	mustWrite(".hidden.json")
	mustWrite(".trash/old.json")

	files, err := ScanDir(root)
	require.NoError(t, err)
	require.Len(t, files, 3)

	sort.Slice(files, func(i, j int) bool { return files[i].CaseID < files[j].CaseID })
	assert.Equal(t, "alpha", files[0].CaseID)
	assert.Empty(t, files[0].Folder)
	assert.Equal(t, "beta", files[1].CaseID)
	assert.Equal(t, "attorney-lee", files[1].Folder)
	assert.Equal(t, "attorney-lee", files[2].Folder)

	assert.Equal(t, 2, CountFolders(files))
}

func TestScanDir_Missing(t *testing.T) {
	files, err := ScanDir(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, files)
}
