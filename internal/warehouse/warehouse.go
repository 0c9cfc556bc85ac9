// Package warehouse stores yearly statistics runs in Postgres so they can be
// compared across loads of the master workbook.
package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/matsen/pubdash/internal/productivity"
	"github.com/matsen/pubdash/internal/reference"
	"github.com/matsen/pubdash/internal/window"
)

// DriverName is the database/sql driver registered by pgx.
const DriverName = "pgx"

// ConnectTimeout bounds the initial ping.
const ConnectTimeout = 12 * time.Second

var schemaName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Run is one yearly statistics computation.
type Run struct {
	SnapshotRunID string // Run id of the directory snapshot the run was computed from
	Convention    window.Convention
	From          time.Time
	To            time.Time
	Tag           string
	Buckets       []window.Bucket
	Counts        map[string][]int // Identity key -> one count per bucket
	Report        productivity.Report
}

// CountRow is one (bucket, identity) row of a run.
type CountRow struct {
	Bucket       window.Bucket
	PublisherKey string
	Publications int
	Ratio        float64
}

// SummaryRow is the cross-identity summary of one bucket.
type SummaryRow struct {
	Bucket  window.Bucket
	Median  float64
	Maximum float64
}

// SanitizeSchema validates a schema name before it is spliced into SQL.
func SanitizeSchema(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: warehouse schema is required", reference.ErrInvalidArgument)
	}
	if !schemaName.MatchString(value) {
		return "", fmt.Errorf("%w: invalid schema name %q", reference.ErrInvalidArgument, value)
	}
	return value, nil
}

// Validate checks that every series has one value per bucket.
func (r Run) Validate() error {
	if len(r.Buckets) == 0 {
		return fmt.Errorf("%w: run has no buckets", reference.ErrNoData)
	}
	n := len(r.Buckets)
	for key, c := range r.Counts {
		if len(c) != n {
			return fmt.Errorf("%w: %s has %d counts for %d buckets", reference.ErrInvalidArgument, key, len(c), n)
		}
	}
	for key, s := range r.Report.Ratios {
		if len(s) != n {
			return fmt.Errorf("%w: %s has %d ratios for %d buckets", reference.ErrInvalidArgument, key, len(s), n)
		}
	}
	for name, s := range map[string][]float64{"median": r.Report.Median, "maximum": r.Report.Maximum} {
		if len(s) != 0 && len(s) != n {
			return fmt.Errorf("%w: %s series has %d values for %d buckets", reference.ErrInvalidArgument, name, len(s), n)
		}
	}
	return nil
}

// CountRows flattens a run into rows ordered by publisher key, then bucket.
// Identities without a ratio series get ratio 0.
func (r Run) CountRows() []CountRow {
	keys := make([]string, 0, len(r.Counts))
	for k := range r.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]CountRow, 0, len(keys)*len(r.Buckets))
	for _, k := range keys {
		ratios := r.Report.Ratios[k]
		for i, b := range r.Buckets {
			row := CountRow{Bucket: b, PublisherKey: k, Publications: r.Counts[k][i]}
			if i < len(ratios) {
				row.Ratio = ratios[i]
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// SummaryRows returns one row per bucket, or nil when the run carries no
// Median/Maximum series.
func (r Run) SummaryRows() []SummaryRow {
	if len(r.Report.Median) == 0 && len(r.Report.Maximum) == 0 {
		return nil
	}
	rows := make([]SummaryRow, len(r.Buckets))
	for i, b := range r.Buckets {
		rows[i].Bucket = b
		if i < len(r.Report.Median) {
			rows[i].Median = r.Report.Median[i]
		}
		if i < len(r.Report.Maximum) {
			rows[i].Maximum = r.Report.Maximum[i]
		}
	}
	return rows
}

// Open connects to the warehouse and pings it.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, url)
	if err != nil {
		return nil, fmt.Errorf("opening warehouse: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to warehouse: %w", err)
	}
	return db, nil
}

// Push ensures the schema exists and stores the run in one transaction.
// It returns the new run id.
func Push(ctx context.Context, db *sql.DB, schema string, run Run) (string, error) {
	schema, err := SanitizeSchema(schema)
	if err != nil {
		return "", err
	}
	if err := run.Validate(); err != nil {
		return "", err
	}
	if err := EnsureSchema(ctx, db, schema); err != nil {
		return "", fmt.Errorf("ensuring warehouse schema: %w", err)
	}

	runID := uuid.New()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s.stats_runs (
			id, snapshot_run_id, convention, window_start, window_end, run_tag
		) VALUES (
			$1,$2,$3,$4,$5,$6
		)`, schema),
		runID,
		nullString(run.SnapshotRunID),
		string(run.Convention),
		dateOnly(run.From),
		dateOnly(run.To),
		nullString(run.Tag),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	insertCountSQL := fmt.Sprintf(`
		INSERT INTO %s.stats_bucket_counts (
			id, run_id, bucket_label, bucket_start, bucket_end,
			publisher_key, publications, ratio
		) VALUES (
			$1,$2,$3,$4,$5,
			$6,$7,$8
		)`, schema)

	for _, row := range run.CountRows() {
		_, err = tx.ExecContext(ctx, insertCountSQL,
			uuid.New(),
			runID,
			row.Bucket.Label,
			dateOnly(row.Bucket.Start),
			dateOnly(row.Bucket.End),
			row.PublisherKey,
			row.Publications,
			row.Ratio,
		)
		if err != nil {
			return "", fmt.Errorf("inserting counts for %s: %w", row.PublisherKey, err)
		}
	}

	insertSummarySQL := fmt.Sprintf(`
		INSERT INTO %s.stats_bucket_summary (
			id, run_id, bucket_label, median_ratio, max_ratio
		) VALUES (
			$1,$2,$3,$4,$5
		)`, schema)

	for _, row := range run.SummaryRows() {
		_, err = tx.ExecContext(ctx, insertSummarySQL,
			uuid.New(),
			runID,
			row.Bucket.Label,
			row.Median,
			row.Maximum,
		)
		if err != nil {
			return "", fmt.Errorf("inserting summary for %s: %w", row.Bucket.Label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return runID.String(), nil
}

// EnsureSchema creates the schema and its tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB, schema string) error {
	statements := []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, schema),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.stats_runs (
				id uuid PRIMARY KEY,
				snapshot_run_id text,
				convention text NOT NULL,
				window_start date NOT NULL,
				window_end date NOT NULL,
				run_tag text,
				created_at timestamptz NOT NULL DEFAULT now()
			)`, schema),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.stats_bucket_counts (
				id uuid PRIMARY KEY,
				run_id uuid NOT NULL REFERENCES %s.stats_runs(id) ON DELETE CASCADE,
				bucket_label text NOT NULL,
				bucket_start date NOT NULL,
				bucket_end date NOT NULL,
				publisher_key text NOT NULL,
				publications integer NOT NULL,
				ratio double precision NOT NULL
			)`, schema, schema),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.stats_bucket_summary (
				id uuid PRIMARY KEY,
				run_id uuid NOT NULL REFERENCES %s.stats_runs(id) ON DELETE CASCADE,
				bucket_label text NOT NULL,
				median_ratio double precision NOT NULL,
				max_ratio double precision NOT NULL
			)`, schema, schema),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_stats_bucket_counts_run_idx ON %s.stats_bucket_counts (run_id)`, schema, schema),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_stats_bucket_counts_publisher_idx ON %s.stats_bucket_counts (publisher_key)`, schema, schema),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_stats_bucket_summary_run_idx ON %s.stats_bucket_summary (run_id)`, schema, schema),
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// ErrNoRuns is returned by LatestRun on an empty warehouse.
var ErrNoRuns = errors.New("no stats runs stored")

// RunInfo describes a stored run.
type RunInfo struct {
	ID            string    `json:"id"`
	SnapshotRunID string    `json:"snapshot_run_id,omitempty"`
	Convention    string    `json:"convention"`
	WindowStart   time.Time `json:"window_start"`
	WindowEnd     time.Time `json:"window_end"`
	Tag           string    `json:"tag,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// LatestRun returns the most recently stored run.
func LatestRun(ctx context.Context, db *sql.DB, schema string) (RunInfo, error) {
	var info RunInfo
	schema, err := SanitizeSchema(schema)
	if err != nil {
		return info, err
	}

	var snapshot, tag sql.NullString
	err = db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id::text, snapshot_run_id, convention, window_start, window_end, run_tag, created_at
		FROM %s.stats_runs
		ORDER BY created_at DESC
		LIMIT 1`, schema)).Scan(
		&info.ID, &snapshot, &info.Convention, &info.WindowStart, &info.WindowEnd, &tag, &info.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return info, ErrNoRuns
	}
	if err != nil {
		return info, fmt.Errorf("reading latest run: %w", err)
	}
	info.SnapshotRunID = snapshot.String
	info.Tag = tag.String
	return info, nil
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func dateOnly(value time.Time) time.Time {
	y, m, d := value.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
