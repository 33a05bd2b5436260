package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver

	"tweetnorm/internal/models"
)

const recordsSchema = `
CREATE TABLE IF NOT EXISTS records (
	id             TEXT PRIMARY KEY,
	author_id      TEXT NOT NULL,
	created_at     TEXT NOT NULL,
	lang           TEXT NOT NULL,
	username       TEXT NOT NULL,
	follower_count INTEGER NOT NULL,
	category       TEXT NOT NULL,
	sentiment      TEXT NOT NULL,
	domain         TEXT,
	record         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_sentiment ON records (sentiment);
`

// ArchivedRecord is one row of the records table. JSON columns hold the
// serialized category, domain list and full record.
type ArchivedRecord struct {
	ID            string  `db:"id"`
	AuthorID      string  `db:"author_id"`
	CreatedAt     string  `db:"created_at"`
	Lang          string  `db:"lang"`
	Username      string  `db:"username"`
	FollowerCount int64   `db:"follower_count"`
	Category      string  `db:"category"`
	Sentiment     string  `db:"sentiment"`
	Domain        *string `db:"domain"`
	Record        string  `db:"record"`
}

// SQLite archives records in a SQLite database. A record whose id is already
// stored is ignored.
type SQLite struct {
	db *sqlx.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// One writer; also keeps ":memory:" databases on a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, recordsSchema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to create records table: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Write implements Sink.
func (s *SQLite) Write(ctx context.Context, rec *models.NormalizedRecord) error {
	row, err := archive(rec)
	if err != nil {
		return err
	}

	query := `
		INSERT OR IGNORE INTO records
			(id, author_id, created_at, lang, username, follower_count, category, sentiment, domain, record)
		VALUES
			(:id, :author_id, :created_at, :lang, :username, :follower_count, :category, :sentiment, :domain, :record)
	`

	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to archive record %s: %w", rec.ID, err)
	}

	return nil
}

// Get loads an archived row by tweet id.
func (s *SQLite) Get(ctx context.Context, id string) (*ArchivedRecord, error) {
	var row ArchivedRecord

	if err := s.db.GetContext(ctx, &row, `SELECT * FROM records WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("failed to load record %s: %w", id, err)
	}

	return &row, nil
}

// Count returns the number of archived records.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int

	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM records`); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}

	return n, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func archive(rec *models.NormalizedRecord) (*ArchivedRecord, error) {
	full, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record %s: %w", rec.ID, err)
	}

	category, err := json.Marshal(rec.Category)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal category of %s: %w", rec.ID, err)
	}

	row := &ArchivedRecord{
		ID:            rec.ID,
		AuthorID:      rec.AuthorID,
		CreatedAt:     rec.CreatedAt,
		Lang:          rec.Lang,
		Username:      rec.Username,
		FollowerCount: rec.FollowerCount,
		Category:      string(category),
		Sentiment:     string(rec.Sentiment),
		Record:        string(full),
	}

	if rec.Domain != nil {
		domain, err := json.Marshal(rec.Domain)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal domains of %s: %w", rec.ID, err)
		}

		d := string(domain)
		row.Domain = &d
	}

	return row, nil
}
