// Package store provides a SQLite-backed cache for parsed case files.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/estateplan/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrNotFound is returned when a case id is not in the cache.
var ErrNotFound = errors.New("case not found")

// Cache provides SQLite-backed case caching.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// FileInfo holds the tracked mtime and size for a file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all tracked files.
func (c *Cache) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := c.db.Query("SELECT file_path, mtime_ns, size_bytes FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// CachedCase is a case plus the parse-error count recorded when it was cached.
type CachedCase struct {
	Case        model.Case
	ParseErrors int
}

// SaveCase stores a parsed case, its assets, and its file tracking info in one transaction.
func (c *Cache) SaveCase(cs model.Case, parseErrors int, mtimeNs, sizeBytes int64) error {
	grantors, err := json.Marshal(cs.Grantors)
	if err != nil {
		return fmt.Errorf("encoding grantors: %w", err)
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)

	_, err = tx.Exec(`INSERT OR REPLACE INTO cases
		(file_path, case_id, client_name, jurisdiction, plan_type, grantors_json,
		 debts_and_expenses, qtip_value, parse_errors, file_mtime_ns, file_size, parsed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cs.FilePath, cs.CaseID, cs.ClientName, cs.Jurisdiction, string(cs.PlanType), string(grantors),
		cs.DebtsAndExpenses, cs.QTIPValue, parseErrors, mtimeNs, sizeBytes, now,
	)
	if err != nil {
		return err
	}

	// Replace the asset schedule wholesale
	if _, err = tx.Exec("DELETE FROM assets WHERE file_path = ?", cs.FilePath); err != nil {
		return err
	}
	for i, a := range cs.Assets {
		inTrust := 0
		if a.HeldInTrust {
			inTrust = 1
		}
		_, err = tx.Exec(`INSERT INTO assets
			(file_path, position, description, category, value, held_in_trust)
			VALUES (?, ?, ?, ?, ?, ?)`,
			cs.FilePath, i, a.Description, a.Category, a.Value.String(), inTrust,
		)
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO file_tracker (file_path, mtime_ns, size_bytes)
		VALUES (?, ?, ?)`, cs.FilePath, mtimeNs, sizeBytes)
	if err != nil {
		return err
	}

	return tx.Commit()
}

const caseColumns = `file_path, case_id, client_name, jurisdiction, plan_type, grantors_json,
	debts_and_expenses, qtip_value, parse_errors`

func scanCase(row interface{ Scan(...any) error }) (CachedCase, error) {
	var cc CachedCase
	var planType sql.NullString
	var grantors string

	err := row.Scan(&cc.Case.FilePath, &cc.Case.CaseID, &cc.Case.ClientName, &cc.Case.Jurisdiction,
		&planType, &grantors, &cc.Case.DebtsAndExpenses, &cc.Case.QTIPValue, &cc.ParseErrors)
	if err != nil {
		return cc, err
	}
	if planType.Valid {
		cc.Case.PlanType = model.PlanType(planType.String)
	}
	if grantors != "" {
		if err := json.Unmarshal([]byte(grantors), &cc.Case.Grantors); err != nil {
			return cc, fmt.Errorf("decoding grantors for %s: %w", cc.Case.CaseID, err)
		}
	}
	return cc, nil
}

// LoadAllCases reads all cached cases with their asset schedules.
func (c *Cache) LoadAllCases() ([]CachedCase, error) {
	rows, err := c.db.Query("SELECT " + caseColumns + " FROM cases ORDER BY case_id")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var cases []CachedCase
	for rows.Next() {
		cc, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Batch-load assets
	assetRows, err := c.db.Query(`SELECT file_path, description, category, value, held_in_trust
		FROM assets ORDER BY file_path, position`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = assetRows.Close() }()

	caseIdx := make(map[string]int, len(cases))
	for i, cc := range cases {
		caseIdx[cc.Case.FilePath] = i
	}

	for assetRows.Next() {
		var path string
		a, err := scanAsset(assetRows, &path)
		if err != nil {
			return nil, err
		}
		if idx, ok := caseIdx[path]; ok {
			cases[idx].Case.Assets = append(cases[idx].Case.Assets, a)
		}
	}

	return cases, assetRows.Err()
}

// GetCase returns one cached case by id. If several files share an id, the
// first by file path wins.
func (c *Cache) GetCase(caseID string) (CachedCase, error) {
	row := c.db.QueryRow("SELECT "+caseColumns+" FROM cases WHERE case_id = ? ORDER BY file_path LIMIT 1", caseID)
	cc, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return cc, fmt.Errorf("%w: %s", ErrNotFound, caseID)
	}
	if err != nil {
		return cc, err
	}

	rows, err := c.db.Query(`SELECT file_path, description, category, value, held_in_trust
		FROM assets WHERE file_path = ? ORDER BY position`, cc.Case.FilePath)
	if err != nil {
		return cc, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var path string
		a, err := scanAsset(rows, &path)
		if err != nil {
			return cc, err
		}
		cc.Case.Assets = append(cc.Case.Assets, a)
	}
	return cc, rows.Err()
}

func scanAsset(rows *sql.Rows, path *string) (model.Asset, error) {
	var a model.Asset
	var category sql.NullString
	var value string
	var inTrust int
	if err := rows.Scan(path, &a.Description, &category, &value, &inTrust); err != nil {
		return a, err
	}
	v, err := decimal.NewFromString(value)
	if err != nil {
		return a, fmt.Errorf("asset value %q: %w", value, err)
	}
	a.Value = v
	a.Category = category.String
	a.HeldInTrust = inTrust != 0
	return a, nil
}

// DeleteCase removes the case cached for a file along with its assets.
func (c *Cache) DeleteCase(filePath string) error {
	_, err := c.db.Exec("DELETE FROM cases WHERE file_path = ?", filePath)
	return err
}

// DeleteFileTracker removes a file tracking entry.
func (c *Cache) DeleteFileTracker(filePath string) error {
	_, err := c.db.Exec("DELETE FROM file_tracker WHERE file_path = ?", filePath)
	return err
}

// CaseCount returns the number of cached cases.
func (c *Cache) CaseCount() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM cases").Scan(&count)
	return count, err
}
