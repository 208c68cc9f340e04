/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"dragoneye/internal/domain"

	_ "modernc.org/sqlite"
)

func sampleDeck(name string) domain.Deck {
	return domain.Deck{
		Name:    name,
		Version: 1,
		Groups: []domain.Group{
			{Name: "Fire", Cards: []domain.Card{
				{ID: "f1", Title: "Cinder Imp", Kind: "unit", Cost: 1, Text: "Burns brightly.", Tags: []string{"imp"}},
				{ID: "f2", Title: "Flame Lance", Kind: "spell", Cost: 3, Text: "Deal 3 damage."},
			}},
			{Name: "Relics", Cards: []domain.Card{
				{ID: "r1", Title: "Old Crown", Kind: "item", Cost: 2, Text: "A relic of flame kings."},
			}},
		},
	}
}

func openTestLibrary(t *testing.T) *Library {
	t.Helper()
	lib, err := OpenLibrary(filepath.Join(t.TempDir(), "lib", "library.db"))
	if err != nil {
		t.Fatalf("OpenLibrary: %v", err)
	}
	t.Cleanup(func() { _ = lib.Close() })
	return lib
}

func ctxT(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestOpenLibraryCreatesWALAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.db")
	lib, err := OpenLibrary(path)
	if err != nil {
		t.Fatalf("OpenLibrary: %v", err)
	}
	ctx := ctxT(t)
	v, err := lib.SchemaVersion(ctx)
	if err != nil || v != schemaVersion {
		t.Fatalf("schema version = %d, %v; want %d", v, err, schemaVersion)
	}
	var mode string
	if err := lib.db.QueryRowContext(ctx, "PRAGMA journal_mode;").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if strings.ToLower(mode) != "wal" {
		t.Fatalf("expected WAL, got %q", mode)
	}
	for _, name := range []string{"meta", "version", "decks", "cards", "fts_cards"} {
		var n int
		if err := lib.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE name=?`, name).Scan(&n); err != nil || n != 1 {
			t.Fatalf("table %s missing: %v", name, err)
		}
	}
	_ = lib.Close()

	// Reopening keeps the schema and does not re-run migrations.
	lib2, err := OpenLibrary(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer lib2.Close()
	if v, _ := lib2.SchemaVersion(ctx); v != schemaVersion {
		t.Fatalf("schema after reopen = %d", v)
	}
}

func TestMigrationIndexesExistingCards(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	ctx := ctxT(t)
	// Build a schema 1 database by hand.
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s", filepath.ToSlash(path)))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		t.Fatalf("meta: %v", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		t.Fatalf("schema: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO decks VALUES ('old', '{"name":"old"}', 1, 1, 'x', 'x')`); err != nil {
		t.Fatalf("seed deck: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO cards (deck, group_idx, card_idx, title, kind, cost, text, tags) VALUES ('old', 0, 0, 'Ancient Wyrm', 'unit', 9, '', '')`); err != nil {
		t.Fatalf("seed card: %v", err)
	}
	_ = db.Close()

	lib, err := OpenLibrary(path)
	if err != nil {
		t.Fatalf("OpenLibrary: %v", err)
	}
	defer lib.Close()
	hits, err := lib.Search(ctx, "wyrm", "", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Title != "Ancient Wyrm" {
		t.Fatalf("migrated card not searchable: %+v", hits)
	}
}

func TestPutGetListDelete(t *testing.T) {
	lib := openTestLibrary(t)
	ctx := ctxT(t)
	a, b := sampleDeck("Ember Court"), sampleDeck("Ash Vale")
	for _, d := range []domain.Deck{a, b} {
		if err := lib.Put(ctx, d); err != nil {
			t.Fatalf("Put %s: %v", d.Name, err)
		}
	}
	got, err := lib.Get(ctx, "Ember Court")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, a) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, a)
	}
	list, err := lib.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Ash Vale" || list[1].Name != "Ember Court" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if list[0].Groups != 2 || list[0].Cards != 3 || list[0].CreatedAt.IsZero() {
		t.Fatalf("unexpected info: %+v", list[0])
	}

	if err := lib.Delete(ctx, "Ash Vale"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := lib.Get(ctx, "Ash Vale"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := lib.Delete(ctx, "Ash Vale"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for second delete, got %v", err)
	}
}

func TestPutReplacesCards(t *testing.T) {
	lib := openTestLibrary(t)
	ctx := ctxT(t)
	d := sampleDeck("Ember Court")
	if err := lib.Put(ctx, d); err != nil {
		t.Fatalf("Put: %v", err)
	}
	d.Groups = d.Groups[:1]
	d.Groups[0].Cards[0].Title = "Cinder Fiend"
	if err := lib.Put(ctx, d); err != nil {
		t.Fatalf("Put again: %v", err)
	}
	if hits, _ := lib.Search(ctx, "crown", "", 0); len(hits) != 0 {
		t.Fatalf("removed card still indexed: %+v", hits)
	}
	if hits, _ := lib.Search(ctx, "imp", "", 0); len(hits) != 1 || hits[0].Title != "Cinder Fiend" {
		t.Fatalf("tags should still match the renamed card: %+v", hits)
	}
	list, _ := lib.List(ctx)
	if len(list) != 1 || list[0].Cards != 2 {
		t.Fatalf("counts not updated: %+v", list)
	}
}

func TestPutRequiresName(t *testing.T) {
	lib := openTestLibrary(t)
	if err := lib.Put(ctxT(t), domain.Deck{}); err == nil {
		t.Fatalf("expected error for unnamed deck")
	}
}

func TestSearch(t *testing.T) {
	lib := openTestLibrary(t)
	ctx := ctxT(t)
	if err := lib.Put(ctx, sampleDeck("Ember Court")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := lib.Put(ctx, sampleDeck("Ash Vale")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	hits, err := lib.Search(ctx, "flame", "", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	// Title match (Flame Lance) and text match (Old Crown) in both decks, ordered by deck then position.
	want := []string{"Ash Vale/Flame Lance", "Ash Vale/Old Crown", "Ember Court/Flame Lance", "Ember Court/Old Crown"}
	if len(hits) != len(want) {
		t.Fatalf("got %d hits, want %d: %+v", len(hits), len(want), hits)
	}
	for i, w := range want {
		if got := hits[i].Deck + "/" + hits[i].Title; got != w {
			t.Fatalf("hit %d = %q, want %q", i, got, w)
		}
	}
	if hits[0].Ref != (domain.Ref{Group: 0, Card: 1}) || hits[0].ID != "f2" || hits[0].Cost != 3 {
		t.Fatalf("hit fields wrong: %+v", hits[0])
	}

	if hits, _ := lib.Search(ctx, "fla", "item", 0); len(hits) != 2 || hits[0].Kind != "item" {
		t.Fatalf("prefix plus kind filter failed: %+v", hits)
	}
	if hits, _ := lib.Search(ctx, "flame", "", 1); len(hits) != 1 {
		t.Fatalf("limit not applied: %+v", hits)
	}
	if hits, _ := lib.Search(ctx, "cinder burns", "", 0); len(hits) != 2 {
		t.Fatalf("terms should be AND-ed across columns: %+v", hits)
	}
	// Syntax characters are quoted, not interpreted.
	if _, err := lib.Search(ctx, `AND fire- OR`, "", 0); err != nil {
		t.Fatalf("quoted query should not fail: %v", err)
	}
	if hits, err := lib.Search(ctx, "   ", "", 0); err != nil || hits != nil {
		t.Fatalf("blank query should return nothing: %v %v", hits, err)
	}
}

func TestFTSQuery(t *testing.T) {
	if got := ftsQuery(` fire  "imp `); got != `"fire"* """imp"*` {
		t.Fatalf("unexpected fts query %q", got)
	}
}
