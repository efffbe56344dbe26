// CLAUDE:SUMMARY SQLite dataset catalog — insert, FTS5 keyword query, recency listing, search log.
// Package store persists classified dataset records in SQLite with FTS5
// keyword search.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/idrismusa4/afridata/idgen"
)

// Dataset is a classified dataset record as persisted in the catalog.
type Dataset struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Country     string   `json:"country"`
	AIScore     float64  `json:"ai_score"`
	FileType    string   `json:"file_type"`
	SourceURL   string   `json:"source_url"`
	FileURL     string   `json:"file_url"`
	Author      string   `json:"author"`
	AuthorType  string   `json:"author_type"`
	Downloads   int      `json:"downloads"`
	Views       int      `json:"views"`
	Rating      float64  `json:"rating"`
	Reviews     int      `json:"reviews"`
	License     string   `json:"license"`
	RowCount    int      `json:"rows"`
	ColumnCount int      `json:"columns"`
	IsPaid      bool     `json:"is_paid"`
	Price       float64  `json:"price"`
	LastUpdated int64    `json:"last_updated"` // unix millis
	CreatedAt   int64    `json:"created_at"`   // unix millis
}

// Store wraps the catalog database.
type Store struct {
	DB *sql.DB
}

// New creates a Store and applies the schema.
func New(db *sql.DB) (*Store, error) {
	if err := ApplySchema(db); err != nil {
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &Store{DB: db}, nil
}

// Insert persists a dataset record. Missing ID and CreatedAt are filled in.
// A record with an already-catalogued source URL is rejected by the unique
// index; callers treat that as an insert failure, not a pipeline failure.
func (s *Store) Insert(ctx context.Context, d *Dataset) error {
	if d.ID == "" {
		d.ID = idgen.Prefixed("ds_", idgen.Default)()
	}
	if d.CreatedAt == 0 {
		d.CreatedAt = time.Now().UnixMilli()
	}
	if d.LastUpdated == 0 {
		d.LastUpdated = d.CreatedAt
	}
	tags, err := json.Marshal(d.Tags)
	if err != nil {
		return fmt.Errorf("store: marshal tags: %w", err)
	}

	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO datasets
		(id, title, summary, description, tags_json, country, ai_score, file_type,
		 source_url, file_url, author, author_type, downloads, views, rating, reviews,
		 license, row_count, column_count, is_paid, price, last_updated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Title, d.Summary, d.Description, string(tags), d.Country, d.AIScore, d.FileType,
		d.SourceURL, d.FileURL, d.Author, d.AuthorType, d.Downloads, d.Views, d.Rating, d.Reviews,
		d.License, d.RowCount, d.ColumnCount, d.IsPaid, d.Price, d.LastUpdated, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: insert dataset: %w", err)
	}
	return nil
}

// Query performs an FTS5 keyword search over the catalog. The raw user
// query is quoted term-by-term so FTS5 operators in user input cannot
// break the match expression. The search is logged fire-and-forget.
func (s *Store) Query(ctx context.Context, query string, limit int) ([]*Dataset, error) {
	if limit <= 0 {
		limit = 20
	}
	match := ftsQuote(query)
	if match == "" {
		return nil, nil
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT d.id, d.title, d.summary, d.description, d.tags_json, d.country, d.ai_score,
		        d.file_type, d.source_url, d.file_url, d.author, d.author_type, d.downloads,
		        d.views, d.rating, d.reviews, d.license, d.row_count, d.column_count,
		        d.is_paid, d.price, d.last_updated, d.created_at
		FROM datasets_fts f
		JOIN datasets d ON d.rowid = f.rowid
		WHERE datasets_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	defer rows.Close()

	results, err := scanDatasets(rows)
	if err != nil {
		return nil, err
	}

	// Log the search (fire-and-forget).
	s.DB.ExecContext(ctx,
		`INSERT INTO search_log (id, query, result_count, searched_at) VALUES (?, ?, ?, ?)`,
		idgen.Prefixed("log_", idgen.Default)(), query, len(results), time.Now().UnixMilli())

	return results, nil
}

// ListRecent returns the newest catalog records.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]*Dataset, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, title, summary, description, tags_json, country, ai_score,
		        file_type, source_url, file_url, author, author_type, downloads,
		        views, rating, reviews, license, row_count, column_count,
		        is_paid, price, last_updated, created_at
		FROM datasets ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list recent: %w", err)
	}
	defer rows.Close()
	return scanDatasets(rows)
}

func scanDatasets(rows *sql.Rows) ([]*Dataset, error) {
	var results []*Dataset
	for rows.Next() {
		var d Dataset
		var tags string
		if err := rows.Scan(&d.ID, &d.Title, &d.Summary, &d.Description, &tags, &d.Country,
			&d.AIScore, &d.FileType, &d.SourceURL, &d.FileURL, &d.Author, &d.AuthorType,
			&d.Downloads, &d.Views, &d.Rating, &d.Reviews, &d.License, &d.RowCount,
			&d.ColumnCount, &d.IsPaid, &d.Price, &d.LastUpdated, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan dataset: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &d.Tags); err != nil {
			d.Tags = nil
		}
		results = append(results, &d)
	}
	return results, rows.Err()
}

// ftsQuote wraps each whitespace-separated term in double quotes so the
// user query is treated as plain terms, not FTS5 syntax.
func ftsQuote(query string) string {
	fields := strings.Fields(query)
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, "")
		if f == "" {
			continue
		}
		quoted = append(quoted, `"`+f+`"`)
	}
	return strings.Join(quoted, " ")
}
