// Package store provides the SQLite-backed persistence layer: answered
// queries, uploaded image metadata, knowledge documents, and government
// schemes. All of it is optional — every caller treats a missing or empty
// store as "run from built-in data".
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/farm-guru/farmguru-go/internal/knowledge"
)

// QueryRecord is one answered query persisted for history.
type QueryRecord struct {
	// ID is the record identifier, assigned on insert.
	ID string `json:"id"`
	// UserID identifies the asking user, possibly empty.
	UserID string `json:"user_id,omitempty"`
	// Question is the raw query text.
	Question string `json:"question"`
	// Response is the full synthesized answer, JSON-encoded.
	Response json.RawMessage `json:"response"`
	// Confidence is the answer confidence at the time of answering.
	Confidence float64 `json:"confidence"`
	// CreatedAt is when the record was persisted.
	CreatedAt time.Time `json:"created_at"`
}

// ImageRecord is the metadata of one uploaded crop image.
type ImageRecord struct {
	// ID is the record identifier, assigned on insert.
	ID string `json:"id"`
	// UserID identifies the uploading user, possibly empty.
	UserID string `json:"user_id,omitempty"`
	// Filename is the original upload filename.
	Filename string `json:"filename"`
	// Label is the analyzer's classification of the image.
	Label string `json:"label"`
	// Confidence is the analyzer's confidence in the label.
	Confidence float64 `json:"confidence"`
	// CreatedAt is when the record was persisted.
	CreatedAt time.Time `json:"created_at"`
}

// SchemeRecord is one government support scheme.
type SchemeRecord struct {
	// Name is the scheme's full name.
	Name string `json:"name"`
	// Code is the scheme's short code (e.g. "PMFBY").
	Code string `json:"code"`
	// Description is a one-line summary of the scheme.
	Description string `json:"description"`
	// Eligibility lists the conditions a farmer must meet.
	Eligibility []string `json:"eligibility"`
	// RequiredDocs lists the documents needed to apply.
	RequiredDocs []string `json:"required_docs"`
	// Benefits summarizes what the scheme provides.
	Benefits string `json:"benefits"`
	// URL is the official application portal.
	URL string `json:"url,omitempty"`
	// States lists applicable states; empty means pan-India.
	States []string `json:"applicable_states,omitempty"`
	// Crops lists applicable crops; empty means all crops.
	Crops []string `json:"applicable_crops,omitempty"`
	// MaxLandSize is the land-holding cap in hectares; 0 means no cap.
	MaxLandSize float64 `json:"max_land_size,omitempty"`
	// FarmerTypes lists eligible farmer types (small, marginal, large);
	// empty means all.
	FarmerTypes []string `json:"eligible_farmer_types,omitempty"`
}

// Store is the persistence contract consumed by the HTTP handlers and the
// knowledge library. Implementations must be safe for concurrent use.
type Store interface {
	knowledge.DocumentSource

	// InsertQuery persists an answered query and returns its record ID.
	InsertQuery(ctx context.Context, userID, question string, response json.RawMessage, confidence float64) (string, error)
	// RecentQueries returns the most recent queries, newest first, optionally
	// filtered by user.
	RecentQueries(ctx context.Context, userID string, limit int) ([]QueryRecord, error)

	// InsertImage persists uploaded image metadata and returns its record ID.
	InsertImage(ctx context.Context, rec *ImageRecord) (string, error)
	// GetImage fetches image metadata by ID. Returns (nil, nil) when the ID
	// does not exist.
	GetImage(ctx context.Context, id string) (*ImageRecord, error)

	// ReplaceDocuments replaces the stored knowledge documents wholesale.
	ReplaceDocuments(ctx context.Context, docs []knowledge.Document) error

	// ListSchemes returns schemes matching the optional state and crop
	// filters. Empty filters match everything.
	ListSchemes(ctx context.Context, state, crop string) ([]SchemeRecord, error)
	// ReplaceSchemes replaces the stored schemes wholesale.
	ReplaceSchemes(ctx context.Context, schemes []SchemeRecord) error

	// Close releases any resources held by the store.
	Close() error
}

// SQLiteStore is a Store backed by a local SQLite database.
type SQLiteStore struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// DefaultDBPath returns the default path for the farmguru database.
// It resolves to ~/.farmguru/farmguru.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".farmguru")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "farmguru.db"), nil
}

// Open opens (or creates) a SQLiteStore at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS queries (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id      TEXT,
    question     TEXT    NOT NULL,
    response     TEXT    NOT NULL,  -- JSON answer envelope
    confidence   REAL    NOT NULL,
    created_at   INTEGER NOT NULL   -- Unix timestamp (seconds)
);
CREATE INDEX IF NOT EXISTS idx_queries_user_created
    ON queries (user_id, created_at);

CREATE TABLE IF NOT EXISTS images (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id      TEXT,
    filename     TEXT    NOT NULL,
    label        TEXT    NOT NULL,
    confidence   REAL    NOT NULL,
    created_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS docs (
    doc_id       TEXT    PRIMARY KEY,
    title        TEXT    NOT NULL,
    content      TEXT    NOT NULL,
    url          TEXT    NOT NULL,
    snippet      TEXT    NOT NULL,
    position     INTEGER NOT NULL   -- preserves load order
);

CREATE TABLE IF NOT EXISTS schemes (
    code          TEXT   PRIMARY KEY,
    name          TEXT   NOT NULL,
    description   TEXT   NOT NULL,
    eligibility   TEXT   NOT NULL,  -- JSON array
    required_docs TEXT   NOT NULL,  -- JSON array
    benefits      TEXT   NOT NULL,
    url           TEXT   NOT NULL,
    states        TEXT   NOT NULL,  -- JSON array, empty = pan-India
    crops         TEXT   NOT NULL,  -- JSON array, empty = all crops
    max_land_size REAL   NOT NULL,  -- hectares, 0 = no cap
    farmer_types  TEXT   NOT NULL   -- JSON array, empty = all
);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// InsertQuery persists an answered query and returns its record ID.
func (s *SQLiteStore) InsertQuery(ctx context.Context, userID, question string, response json.RawMessage, confidence float64) (string, error) {
	const q = `INSERT INTO queries (user_id, question, response, confidence, created_at) VALUES (?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q, userID, question, string(response), confidence, time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("store: insert query: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("store: insert query id: %w", err)
	}
	return strconv.FormatInt(id, 10), nil
}

// RecentQueries returns the most recent queries, newest first. An empty
// userID matches all users.
func (s *SQLiteStore) RecentQueries(ctx context.Context, userID string, limit int) ([]QueryRecord, error) {
	const q = `
SELECT id, user_id, question, response, confidence, created_at
FROM   queries
WHERE  (? = '' OR user_id = ?)
ORDER  BY created_at DESC, id DESC
LIMIT  ?`

	rows, err := s.db.QueryContext(ctx, q, userID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: recent queries: %w", err)
	}
	defer rows.Close()

	var recs []QueryRecord
	for rows.Next() {
		var r QueryRecord
		var id, ts int64
		var uid sql.NullString
		var response string
		if err := rows.Scan(&id, &uid, &r.Question, &response, &r.Confidence, &ts); err != nil {
			return nil, fmt.Errorf("store: recent queries scan: %w", err)
		}
		r.ID = strconv.FormatInt(id, 10)
		r.UserID = uid.String
		r.Response = json.RawMessage(response)
		r.CreatedAt = time.Unix(ts, 0)
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: recent queries rows: %w", err)
	}
	return recs, nil
}

// InsertImage persists uploaded image metadata and returns its record ID.
func (s *SQLiteStore) InsertImage(ctx context.Context, rec *ImageRecord) (string, error) {
	const q = `INSERT INTO images (user_id, filename, label, confidence, created_at) VALUES (?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q, rec.UserID, rec.Filename, rec.Label, rec.Confidence, time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("store: insert image: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("store: insert image id: %w", err)
	}
	return strconv.FormatInt(id, 10), nil
}

// GetImage fetches image metadata by ID. Returns (nil, nil) when the ID does
// not exist or is not numeric.
func (s *SQLiteStore) GetImage(ctx context.Context, id string) (*ImageRecord, error) {
	numID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, nil
	}

	const q = `SELECT id, user_id, filename, label, confidence, created_at FROM images WHERE id = ?`
	var rec ImageRecord
	var rowID, ts int64
	var uid sql.NullString
	err = s.db.QueryRowContext(ctx, q, numID).Scan(&rowID, &uid, &rec.Filename, &rec.Label, &rec.Confidence, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get image: %w", err)
	}
	rec.ID = strconv.FormatInt(rowID, 10)
	rec.UserID = uid.String
	rec.CreatedAt = time.Unix(ts, 0)
	return &rec, nil
}

// FetchAllDocuments returns every stored knowledge document in load order.
// Implements knowledge.DocumentSource.
func (s *SQLiteStore) FetchAllDocuments(ctx context.Context) ([]knowledge.Document, error) {
	const q = `SELECT doc_id, title, content, url, snippet FROM docs ORDER BY position ASC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store: fetch documents: %w", err)
	}
	defer rows.Close()

	var docs []knowledge.Document
	for rows.Next() {
		var d knowledge.Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &d.URL, &d.Snippet); err != nil {
			return nil, fmt.Errorf("store: fetch documents scan: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: fetch documents rows: %w", err)
	}
	return docs, nil
}

// ReplaceDocuments replaces the stored knowledge documents wholesale,
// preserving the given order.
func (s *SQLiteStore) ReplaceDocuments(ctx context.Context, docs []knowledge.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: replace documents begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, `DELETE FROM docs`); err != nil {
		return fmt.Errorf("store: replace documents clear: %w", err)
	}
	const q = `INSERT INTO docs (doc_id, title, content, url, snippet, position) VALUES (?, ?, ?, ?, ?, ?)`
	for i, d := range docs {
		if _, err := tx.ExecContext(ctx, q, d.ID, d.Title, d.Content, d.URL, d.Snippet, i); err != nil {
			return fmt.Errorf("store: replace documents insert %q: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: replace documents commit: %w", err)
	}
	return nil
}

// ListSchemes returns schemes matching the optional state and crop filters.
// A scheme with an empty state/crop list applies everywhere.
func (s *SQLiteStore) ListSchemes(ctx context.Context, state, crop string) ([]SchemeRecord, error) {
	const q = `SELECT code, name, description, eligibility, required_docs, benefits, url, states, crops, max_land_size, farmer_types FROM schemes ORDER BY name ASC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store: list schemes: %w", err)
	}
	defer rows.Close()

	var schemes []SchemeRecord
	for rows.Next() {
		var rec SchemeRecord
		var eligibility, requiredDocs, states, crops, farmerTypes string
		if err := rows.Scan(&rec.Code, &rec.Name, &rec.Description, &eligibility, &requiredDocs,
			&rec.Benefits, &rec.URL, &states, &crops, &rec.MaxLandSize, &farmerTypes); err != nil {
			return nil, fmt.Errorf("store: list schemes scan: %w", err)
		}
		for _, col := range []struct {
			raw string
			dst *[]string
		}{
			{eligibility, &rec.Eligibility},
			{requiredDocs, &rec.RequiredDocs},
			{states, &rec.States},
			{crops, &rec.Crops},
			{farmerTypes, &rec.FarmerTypes},
		} {
			if err := json.Unmarshal([]byte(col.raw), col.dst); err != nil {
				return nil, fmt.Errorf("store: list schemes decode %q: %w", rec.Code, err)
			}
		}
		if state != "" && len(rec.States) > 0 && !contains(rec.States, state) {
			continue
		}
		if crop != "" && len(rec.Crops) > 0 && !contains(rec.Crops, crop) {
			continue
		}
		schemes = append(schemes, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list schemes rows: %w", err)
	}
	return schemes, nil
}

// ReplaceSchemes replaces the stored schemes wholesale.
func (s *SQLiteStore) ReplaceSchemes(ctx context.Context, schemes []SchemeRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: replace schemes begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, `DELETE FROM schemes`); err != nil {
		return fmt.Errorf("store: replace schemes clear: %w", err)
	}
	const q = `INSERT INTO schemes (code, name, description, eligibility, required_docs, benefits, url, states, crops, max_land_size, farmer_types) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, rec := range schemes {
		cols := make([]string, 0, 5)
		for _, list := range [][]string{rec.Eligibility, rec.RequiredDocs, rec.States, rec.Crops, rec.FarmerTypes} {
			b, err := json.Marshal(emptyIfNil(list))
			if err != nil {
				return fmt.Errorf("store: replace schemes encode %q: %w", rec.Code, err)
			}
			cols = append(cols, string(b))
		}
		if _, err := tx.ExecContext(ctx, q, rec.Code, rec.Name, rec.Description, cols[0], cols[1],
			rec.Benefits, rec.URL, cols[2], cols[3], rec.MaxLandSize, cols[4]); err != nil {
			return fmt.Errorf("store: replace schemes insert %q: %w", rec.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: replace schemes commit: %w", err)
	}
	return nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func emptyIfNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
