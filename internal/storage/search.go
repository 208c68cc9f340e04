/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package storage

import (
	"context"
	"fmt"
	"strings"

	"dragoneye/internal/domain"
)

// CardHit is one search match.
type CardHit struct {
	Deck  string
	Ref   domain.Ref
	ID    string
	Title string
	Kind  string
	Cost  int
}

// Search finds cards whose title, text or tags contain every term of query.
// Terms are matched as FTS5 prefixes, so "fla" finds "Flame". Kind filters
// by card kind when non-empty.
func (lib *Library) Search(ctx context.Context, query, kind string, limit int) ([]CardHit, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	var sb strings.Builder
	args := []any{match}
	sb.WriteString("SELECT c.deck, c.group_idx, c.card_idx, COALESCE(c.ref,''), c.title, c.kind, c.cost\n")
	sb.WriteString("FROM fts_cards JOIN cards c ON fts_cards.rowid = c.card_id\n")
	sb.WriteString("WHERE fts_cards MATCH ?\n")
	if k := strings.TrimSpace(kind); k != "" {
		sb.WriteString(" AND c.kind = ?\n")
		args = append(args, k)
	}
	sb.WriteString("ORDER BY c.deck, c.group_idx, c.card_idx\n")
	sb.WriteString("LIMIT ?")
	args = append(args, limit)

	rows, err := lib.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []CardHit
	for rows.Next() {
		var h CardHit
		if err := rows.Scan(&h.Deck, &h.Ref.Group, &h.Ref.Card, &h.ID, &h.Title, &h.Kind, &h.Cost); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ftsQuery quotes each whitespace separated term as an FTS5 prefix string so
// user input cannot inject query syntax.
func ftsQuery(q string) string {
	fields := strings.Fields(q)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, `""`)
		terms = append(terms, `"`+f+`"*`)
	}
	return strings.Join(terms, " ")
}
