package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/matsen/pubdash/internal/reference"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// Hit is one attributed publication returned by a search.
type Hit struct {
	PublisherKey string `json:"publisher"`
	reference.Publication
}

// PublisherCount is a row of CountByPublisher.
type PublisherCount struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
	Count       int    `json:"count"`
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS snapshot_meta (
			run_id TEXT NOT NULL,
			loaded_at TEXT NOT NULL,
			source TEXT
		);

		CREATE TABLE IF NOT EXISTS publishers (
			key TEXT PRIMARY KEY,
			last_name TEXT NOT NULL,
			first_name TEXT NOT NULL,
			display_name TEXT NOT NULL,
			position TEXT,
			currently_active INTEGER NOT NULL,
			collision INTEGER NOT NULL,
			publication_count INTEGER NOT NULL
		);

		-- One row per (publisher, publication); a publication shared by
		-- several publishers appears once for each
		CREATE TABLE IF NOT EXISTS attributions (
			publisher_key TEXT NOT NULL,
			published TEXT NOT NULL,
			doi TEXT,
			citation TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_attributions_publisher ON attributions(publisher_key, published);

		CREATE VIRTUAL TABLE IF NOT EXISTS citations_fts USING fts5(
			attribution_id UNINDEXED,
			citation,
			doi
		);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildFromSnapshot clears the database and rebuilds it from a directory
// snapshot. Returns the number of attribution rows written.
func (d *DB) RebuildFromSnapshot(snapshotPath string) (int, error) {
	header, ids, err := ReadSnapshot(snapshotPath)
	if err != nil {
		return 0, fmt.Errorf("reading snapshot: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting rebuild: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"snapshot_meta", "publishers", "attributions", "citations_fts"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return 0, fmt.Errorf("clearing %s table: %w", table, err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO snapshot_meta (run_id, loaded_at, source) VALUES (?, ?, ?)`,
		header.RunID, header.LoadedAt.UTC().Format(time.RFC3339), nullableStringValue(header.Source)); err != nil {
		return 0, fmt.Errorf("inserting snapshot meta: %w", err)
	}

	pubStmt, err := tx.Prepare(`
		INSERT INTO publishers (
			key, last_name, first_name, display_name, position,
			currently_active, collision, publication_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing publishers insert: %w", err)
	}
	defer pubStmt.Close()

	attrStmt, err := tx.Prepare(`
		INSERT INTO attributions (publisher_key, published, doi, citation)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing attributions insert: %w", err)
	}
	defer attrStmt.Close()

	ftsStmt, err := tx.Prepare(`
		INSERT INTO citations_fts (attribution_id, citation, doi)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	count := 0
	for _, id := range ids {
		_, err := pubStmt.Exec(
			id.Key, id.LastName, id.FirstName, id.DisplayName, nullableStringValue(id.Position),
			boolInt(id.CurrentlyActive), boolInt(id.Collision), id.PublicationCount,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting publisher %s: %w", id.Key, err)
		}

		for _, p := range id.Publications {
			res, err := attrStmt.Exec(id.Key, p.Date(), nullableStringValue(p.DOI), p.Citation)
			if err != nil {
				return 0, fmt.Errorf("inserting attribution for %s: %w", id.Key, err)
			}
			rowID, err := res.LastInsertId()
			if err != nil {
				return 0, fmt.Errorf("reading attribution id: %w", err)
			}
			if _, err := ftsStmt.Exec(rowID, p.Citation, p.DOI); err != nil {
				return 0, fmt.Errorf("inserting fts for %s: %w", id.Key, err)
			}
			count++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return count, nil
}

// SearchFilters narrows a search. Zero values mean no restriction.
type SearchFilters struct {
	Keyword    string    // Full-text match against citation and DOI
	Publishers []string  // Publisher keys (OR)
	From       time.Time // Earliest publication date, inclusive
	To         time.Time // Latest publication date, inclusive
}

// Search performs a full-text search over citations.
func (d *DB) Search(query string, limit int) ([]Hit, error) {
	return d.SearchWithFilters(SearchFilters{Keyword: query}, limit)
}

// SearchWithFilters returns attributions matching ALL specified criteria,
// ordered by date then publisher.
func (d *DB) SearchWithFilters(filters SearchFilters, limit int) ([]Hit, error) {
	query := `SELECT publisher_key, published, doi, citation FROM attributions WHERE 1=1`
	var args []interface{}

	if kw := prepareFTSQuery(filters.Keyword); kw != "" {
		query += ` AND rowid IN (SELECT CAST(attribution_id AS INTEGER) FROM citations_fts WHERE citations_fts MATCH ?)`
		args = append(args, kw)
	}
	if len(filters.Publishers) > 0 {
		query += ` AND publisher_key IN (?` + strings.Repeat(", ?", len(filters.Publishers)-1) + `)`
		for _, k := range filters.Publishers {
			args = append(args, k)
		}
	}
	if !filters.From.IsZero() {
		query += ` AND published >= ?`
		args = append(args, filters.From.Format(reference.DateLayout))
	}
	if !filters.To.IsZero() {
		query += ` AND published <= ?`
		args = append(args, filters.To.Format(reference.DateLayout))
	}

	query += ` ORDER BY published, publisher_key`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var (
			h         Hit
			published string
			doi       sql.NullString
		)
		if err := rows.Scan(&h.PublisherKey, &published, &doi, &h.Citation); err != nil {
			return nil, err
		}
		h.Published, err = time.Parse(reference.DateLayout, published)
		if err != nil {
			return nil, fmt.Errorf("parsing date %q: %w", published, err)
		}
		h.DOI = doi.String
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// CountByPublisher returns each publisher's attribution count, most first.
func (d *DB) CountByPublisher() ([]PublisherCount, error) {
	rows, err := d.db.Query(`
		SELECT key, display_name, publication_count
		FROM publishers
		ORDER BY publication_count DESC, key
	`)
	if err != nil {
		return nil, fmt.Errorf("counting by publisher: %w", err)
	}
	defer rows.Close()

	var out []PublisherCount
	for rows.Next() {
		var c PublisherCount
		if err := rows.Scan(&c.Key, &c.DisplayName, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Count returns the total number of attribution rows.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM attributions").Scan(&count)
	return count, err
}

// RunID returns the run id of the snapshot the cache was built from, or ""
// for an empty cache.
func (d *DB) RunID() (string, error) {
	var id string
	err := d.db.QueryRow("SELECT run_id FROM snapshot_meta LIMIT 1").Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return id, err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	// FTS5 uses double quotes for phrase matching
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	if strings.ContainsAny(query, "\"*+-:(){}[]^~.,/") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}
