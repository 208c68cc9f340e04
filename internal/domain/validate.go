/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxTitleRunes = 64
	MaxCost       = 20
)

// Kinds lists the accepted card kinds.
var Kinds = []string{"unit", "spell", "item", "terrain", "hero"}

// FieldError is one rule violation at a path like "groups[1].cards[0].title".
type FieldError struct {
	Path    string
	Message string
}

func (e FieldError) Error() string { return e.Path + ": " + e.Message }

// ValidationErrors collects every violation found in a deck.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	switch len(v) {
	case 0:
		return "no validation errors"
	case 1:
		return v[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:", len(v))
	for _, e := range v {
		b.WriteString("\n  ")
		b.WriteString(e.Error())
	}
	return b.String()
}

func validKind(k string) bool {
	for _, x := range Kinds {
		if k == x {
			return true
		}
	}
	return false
}

// Validate checks the deck rules and returns ValidationErrors, or nil.
func Validate(d Deck) error {
	var errs ValidationErrors
	add := func(path, format string, args ...any) {
		errs = append(errs, FieldError{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(d.Name) == "" {
		add("name", "is required")
	}
	groups := map[string]int{}
	ids := map[string]string{}
	for gi, g := range d.Groups {
		gp := fmt.Sprintf("groups[%d]", gi)
		name := strings.TrimSpace(g.Name)
		if name == "" {
			add(gp+".name", "is required")
		} else if prev, dup := groups[name]; dup {
			add(gp+".name", "duplicates groups[%d] (%q)", prev, name)
		} else {
			groups[name] = gi
		}
		for ci, c := range g.Cards {
			cp := fmt.Sprintf("%s.cards[%d]", gp, ci)
			title := strings.TrimSpace(c.Title)
			switch {
			case title == "":
				add(cp+".title", "is required")
			case utf8.RuneCountInString(title) > MaxTitleRunes:
				add(cp+".title", "is longer than %d characters", MaxTitleRunes)
			}
			if c.Cost < 0 || c.Cost > MaxCost {
				add(cp+".cost", "must be between 0 and %d, got %d", MaxCost, c.Cost)
			}
			if !validKind(c.Kind) {
				add(cp+".kind", "must be one of %s, got %q", strings.Join(Kinds, "|"), c.Kind)
			}
			if c.ID != "" {
				if prev, dup := ids[c.ID]; dup {
					add(cp+".id", "duplicates %s (%q)", prev, c.ID)
				} else {
					ids[c.ID] = cp
				}
			}
			if c.Size != nil && (c.Size.W <= 0 || c.Size.H <= 0) {
				add(cp+".size", "must be positive")
			}
			for ti, tag := range c.Tags {
				if strings.TrimSpace(tag) == "" {
					add(fmt.Sprintf("%s.tags[%d]", cp, ti), "must not be blank")
				}
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
