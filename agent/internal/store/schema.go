// CLAUDE:SUMMARY Applies the dataset catalog SQL schema including FTS5 index and sync triggers.
package store

import "database/sql"

// Schema is the complete catalog schema.
const Schema = `
-- Classified dataset records
CREATE TABLE IF NOT EXISTS datasets (
    id           TEXT PRIMARY KEY,
    title        TEXT NOT NULL,
    summary      TEXT NOT NULL DEFAULT '',
    description  TEXT NOT NULL DEFAULT '',
    tags_json    TEXT NOT NULL DEFAULT '[]',
    country      TEXT NOT NULL DEFAULT '',
    ai_score     REAL NOT NULL DEFAULT 0,
    file_type    TEXT NOT NULL DEFAULT '',
    source_url   TEXT NOT NULL,
    file_url     TEXT NOT NULL DEFAULT '',
    author       TEXT NOT NULL DEFAULT '',
    author_type  TEXT NOT NULL DEFAULT '',
    downloads    INTEGER NOT NULL DEFAULT 0,
    views        INTEGER NOT NULL DEFAULT 0,
    rating       REAL NOT NULL DEFAULT 0,
    reviews      INTEGER NOT NULL DEFAULT 0,
    license      TEXT NOT NULL DEFAULT '',
    row_count    INTEGER NOT NULL DEFAULT 0,
    column_count INTEGER NOT NULL DEFAULT 0,
    is_paid      INTEGER NOT NULL DEFAULT 0,
    price        REAL NOT NULL DEFAULT 0,
    last_updated INTEGER NOT NULL DEFAULT 0,
    created_at   INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_datasets_source_url ON datasets(source_url);
CREATE INDEX IF NOT EXISTS idx_datasets_time ON datasets(created_at DESC);

-- FTS5 on datasets (title + summary + description + tags)
CREATE VIRTUAL TABLE IF NOT EXISTS datasets_fts USING fts5(
    title, summary, description, tags_json, content='datasets', content_rowid='rowid',
    tokenize='unicode61 remove_diacritics 2'
);

-- Triggers to keep FTS5 in sync
CREATE TRIGGER IF NOT EXISTS datasets_ai AFTER INSERT ON datasets BEGIN
    INSERT INTO datasets_fts(rowid, title, summary, description, tags_json)
    VALUES (new.rowid, new.title, new.summary, new.description, new.tags_json);
END;
CREATE TRIGGER IF NOT EXISTS datasets_ad AFTER DELETE ON datasets BEGIN
    INSERT INTO datasets_fts(datasets_fts, rowid, title, summary, description, tags_json)
    VALUES('delete', old.rowid, old.title, old.summary, old.description, old.tags_json);
END;
CREATE TRIGGER IF NOT EXISTS datasets_au AFTER UPDATE ON datasets BEGIN
    INSERT INTO datasets_fts(datasets_fts, rowid, title, summary, description, tags_json)
    VALUES('delete', old.rowid, old.title, old.summary, old.description, old.tags_json);
    INSERT INTO datasets_fts(rowid, title, summary, description, tags_json)
    VALUES (new.rowid, new.title, new.summary, new.description, new.tags_json);
END;

-- Search log (user query history)
CREATE TABLE IF NOT EXISTS search_log (
    id           TEXT PRIMARY KEY,
    query        TEXT NOT NULL,
    result_count INTEGER NOT NULL DEFAULT 0,
    searched_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_search_log_time ON search_log(searched_at DESC);
`

// ApplySchema creates all tables, indexes, and triggers on the given database.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
