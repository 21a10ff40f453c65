// Package persistence keeps the ledger of processed presentations so watch
// mode never retranslates a document it already handled.
package persistence

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	// Bootstrap schema_migrations table so we can track applied versions.
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

// Mark upserts the ledger record for one processed document.
func (s *SQLiteStore) Mark(ctx context.Context, doc ProcessedDocument) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO processed_documents
		(path, output_path, source_lang, target_lang, char_count, translated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (path, target_lang) DO UPDATE SET
			output_path = excluded.output_path,
			source_lang = excluded.source_lang,
			char_count = excluded.char_count,
			translated_at = excluded.translated_at`,
		doc.Path, doc.OutputPath, doc.SourceLang, doc.TargetLang, doc.CharCount, doc.TranslatedAt.UTC())
	if err != nil {
		return fmt.Errorf("mark processed document: %w", err)
	}
	return nil
}

// IsProcessed reports whether path was already translated to targetLang.
func (s *SQLiteStore) IsProcessed(ctx context.Context, path, targetLang string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM processed_documents WHERE path = ? AND target_lang = ?`,
		path, targetLang).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query processed document: %w", err)
	}
	return count > 0, nil
}

// List returns all ledger records, most recent first.
func (s *SQLiteStore) List(ctx context.Context) ([]ProcessedDocument, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, output_path, source_lang, target_lang, char_count, translated_at
		 FROM processed_documents ORDER BY translated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list processed documents: %w", err)
	}
	defer rows.Close()

	var docs []ProcessedDocument
	for rows.Next() {
		var doc ProcessedDocument
		if err := rows.Scan(&doc.Path, &doc.OutputPath, &doc.SourceLang, &doc.TargetLang, &doc.CharCount, &doc.TranslatedAt); err != nil {
			return nil, fmt.Errorf("scan processed document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
