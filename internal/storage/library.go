/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dragoneye/internal/domain"
	applog "dragoneye/internal/log"
	"dragoneye/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// schemaVersion tracks the library schema. Bump it together with a new
	// step in runMigrations.
	schemaVersion = 2

	// baseSchema is the version ensureSchema creates on a fresh database.
	baseSchema = 1
)

// ErrNotFound is returned when a deck name is not in the library.
var ErrNotFound = errors.New("deck not found")

// DeckInfo is one row of List.
type DeckInfo struct {
	Name      string
	Groups    int
	Cards     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Library is a SQLite backed store of named decks.
type Library struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// OpenLibrary opens or creates the library database at path, enables WAL
// and brings the schema up to date.
func OpenLibrary(path string) (*Library, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "library_open").With(
		slog.String("path", path),
	)
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("library path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.Error("create library dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create library dir: %w", err)
	}

	// SQLite URIs want forward slashes.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db, l); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Info("library ready")
	return &Library{db: db, path: path, log: applog.WithComponent("storage").With(slog.String("path", path))}, nil
}

// Path returns the database file the library was opened from.
func (lib *Library) Path() string { return lib.path }

// Close releases the database handle.
func (lib *Library) Close() error {
	if lib == nil || lib.db == nil {
		return nil
	}
	return lib.db.Close()
}

// SchemaVersion reports the schema stored in the version table.
func (lib *Library) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := lib.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Fresh database: start at the base schema and let migrations run.
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, baseSchema, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// ensureSchema creates the base tables.
func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS decks (
			name       TEXT PRIMARY KEY,
			body       TEXT    NOT NULL,
			groups_n   INTEGER NOT NULL,
			cards_n    INTEGER NOT NULL,
			created_at TEXT    NOT NULL,
			updated_at TEXT    NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS cards (
			card_id   INTEGER PRIMARY KEY,
			deck      TEXT    NOT NULL REFERENCES decks(name) ON DELETE CASCADE,
			group_idx INTEGER NOT NULL,
			card_idx  INTEGER NOT NULL,
			ref       TEXT,
			title     TEXT    NOT NULL,
			kind      TEXT    NOT NULL,
			cost      INTEGER NOT NULL,
			text      TEXT,
			tags      TEXT
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_cards_pos ON cards(deck, group_idx, card_idx);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental steps up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB, l *slog.Logger) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		l.Warn("library schema is newer than this build", slog.Int("schema", cur), slog.Int("supported", schemaVersion))
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			// Card search: contentless FTS5 fed from cards via triggers.
			stmts = []string{
				`CREATE VIRTUAL TABLE IF NOT EXISTS fts_cards USING fts5(
					title, text, tags,
					content='',
					tokenize = 'unicode61'
				);`,
				`CREATE TRIGGER IF NOT EXISTS cards_ai AFTER INSERT ON cards BEGIN
					INSERT INTO fts_cards(rowid, title, text, tags) VALUES (new.card_id, new.title, new.text, new.tags);
				END;`,
				`CREATE TRIGGER IF NOT EXISTS cards_ad AFTER DELETE ON cards BEGIN
					INSERT INTO fts_cards(fts_cards, rowid, title, text, tags) VALUES ('delete', old.card_id, old.title, old.text, old.tags);
				END;`,
				`INSERT INTO fts_cards(rowid, title, text, tags) SELECT card_id, title, text, tags FROM cards;`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		l.Debug("migration applied", slog.Int("schema", next))
		cur = next
	}
	return nil
}

// Put stores d under d.Name, replacing any deck of the same name.
func (lib *Library) Put(ctx context.Context, d domain.Deck) error {
	l := applog.WithOperation(lib.log, "put").With(slog.String("deck", d.Name))
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("deck name is required")
	}
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal deck: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := lib.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO decks (name, body, groups_n, cards_n, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET body=excluded.body, groups_n=excluded.groups_n,
			cards_n=excluded.cards_n, updated_at=excluded.updated_at`,
		d.Name, string(body), len(d.Groups), d.CardCount(), now, now); err != nil {
		return fmt.Errorf("upsert deck: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE deck=?`, d.Name); err != nil {
		return fmt.Errorf("clear cards: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cards (deck, group_idx, card_idx, ref, title, kind, cost, text, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare cards: %w", err)
	}
	defer stmt.Close()
	for gi, g := range d.Groups {
		for ci, c := range g.Cards {
			if _, err := stmt.ExecContext(ctx, d.Name, gi, ci, c.ID, c.Title, c.Kind, c.Cost, c.Text, strings.Join(c.Tags, " ")); err != nil {
				return fmt.Errorf("insert card %d/%d: %w", gi, ci, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put: %w", err)
	}
	l.Debug("deck stored", slog.Int("cards", d.CardCount()))
	return nil
}

// Get loads the deck stored under name.
func (lib *Library) Get(ctx context.Context, name string) (domain.Deck, error) {
	var body string
	err := lib.db.QueryRowContext(ctx, `SELECT body FROM decks WHERE name=?`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Deck{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return domain.Deck{}, fmt.Errorf("read deck: %w", err)
	}
	var d domain.Deck
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		return domain.Deck{}, fmt.Errorf("decode stored deck %q: %w", name, err)
	}
	return d, nil
}

// List returns all decks ordered by name.
func (lib *Library) List(ctx context.Context) ([]DeckInfo, error) {
	rows, err := lib.db.QueryContext(ctx, `SELECT name, groups_n, cards_n, created_at, updated_at FROM decks ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	defer rows.Close()
	var out []DeckInfo
	for rows.Next() {
		var (
			info             DeckInfo
			created, updated string
		)
		if err := rows.Scan(&info.Name, &info.Groups, &info.Cards, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		info.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		info.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete removes the deck stored under name.
func (lib *Library) Delete(ctx context.Context, name string) error {
	tx, err := lib.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	// Delete cards explicitly so the FTS trigger sees every row.
	if _, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE deck=?`, name); err != nil {
		return fmt.Errorf("delete cards: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM decks WHERE name=?`, name)
	if err != nil {
		return fmt.Errorf("delete deck: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	applog.WithOperation(lib.log, "delete").Debug("deck removed", slog.String("deck", name))
	return nil
}
