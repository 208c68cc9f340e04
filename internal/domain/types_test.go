package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"dragoneye/internal/geom"
)

func sampleDeck() Deck {
	return Deck{
		Name:    "Ember Court",
		Version: 1,
		Groups: []Group{
			{Name: "Fire", Cards: []Card{
				{ID: "f1", Title: "Cinder Imp", Kind: "unit", Cost: 1, Tags: []string{"imp"}},
				{ID: "f2", Title: "Flame Lance", Kind: "spell", Cost: 3, Size: &Size{W: 200, H: 300}},
			}},
			{Name: "Relics", Cards: []Card{
				{ID: "r1", Title: "Old Crown", Kind: "item", Cost: 2, Position: &Point{X: 1000, Y: 40}},
			}},
		},
	}
}

func TestDeckJSONRoundTrip(t *testing.T) {
	d := sampleDeck()
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Deck
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Name != d.Name || got.CardCount() != 3 {
		t.Fatalf("unexpected deck: %+v", got)
	}
	if got.Groups[1].Cards[0].Position == nil || got.Groups[1].Cards[0].Position.X != 1000 {
		t.Fatalf("position lost: %+v", got.Groups[1].Cards[0])
	}
}

func TestCardLookup(t *testing.T) {
	d := sampleDeck()
	c, ok := d.Card(Ref{Group: 0, Card: 1})
	if !ok || c.ID != "f2" {
		t.Fatalf("lookup failed: %v %+v", ok, c)
	}
	for _, r := range []Ref{{-1, 0}, {2, 0}, {0, 2}, {1, -1}} {
		if _, ok := d.Card(r); ok {
			t.Fatalf("ref %+v should be out of range", r)
		}
	}
}

func TestLayout(t *testing.T) {
	d := sampleDeck()
	placed := d.Layout()
	if len(placed) != 3 {
		t.Fatalf("expected 3 placed cards, got %d", len(placed))
	}
	if placed[0].Bounds != geom.R(0, layoutHeaderPad, DefaultCardWidth, DefaultCardHeight) {
		t.Fatalf("unexpected first card bounds: %+v", placed[0].Bounds)
	}
	if placed[1].Bounds != geom.R(DefaultCardWidth+layoutGap, layoutHeaderPad, 200, 300) {
		t.Fatalf("unexpected second card bounds: %+v", placed[1].Bounds)
	}
	if placed[2].Ref != (Ref{Group: 1, Card: 0}) || placed[2].Bounds != geom.R(1000, 40, DefaultCardWidth, DefaultCardHeight) {
		t.Fatalf("explicit position not honoured: %+v", placed[2])
	}
	for i := 0; i < 2; i++ {
		for j := i + 1; j < 2; j++ {
			if placed[i].Bounds.Intersects(placed[j].Bounds) {
				t.Fatalf("auto-placed cards overlap: %+v %+v", placed[i].Bounds, placed[j].Bounds)
			}
		}
	}
	ext, ok := d.Extent()
	if !ok || !ext.ContainsRect(placed[1].Bounds) || !ext.ContainsRect(placed[2].Bounds) {
		t.Fatalf("extent does not cover cards: %+v", ext)
	}
	var empty Deck
	if _, ok := empty.Extent(); ok {
		t.Fatalf("empty deck has no extent")
	}
}

func TestValidateAcceptsSample(t *testing.T) {
	if err := Validate(sampleDeck()); err != nil {
		t.Fatalf("sample deck should be valid: %v", err)
	}
}

func TestValidateRules(t *testing.T) {
	d := Deck{
		Groups: []Group{
			{Name: "A", Cards: []Card{
				{ID: "x", Title: "", Kind: "unit", Cost: 0},
				{ID: "x", Title: strings.Repeat("ü", MaxTitleRunes+1), Kind: "dragon", Cost: 21},
				{Title: "Ok", Kind: "hero", Cost: -1, Size: &Size{W: 0, H: 10}, Tags: []string{"fine", " "}},
			}},
			{Name: "A"},
			{Name: " "},
		},
	}
	err := Validate(d)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T %v", err, err)
	}
	want := []string{
		"name",
		"groups[0].cards[0].title",
		"groups[0].cards[1].title",
		"groups[0].cards[1].cost",
		"groups[0].cards[1].kind",
		"groups[0].cards[1].id",
		"groups[0].cards[2].cost",
		"groups[0].cards[2].size",
		"groups[0].cards[2].tags[1]",
		"groups[1].name",
		"groups[2].name",
	}
	if len(verrs) != len(want) {
		t.Fatalf("got %d errors, want %d:\n%v", len(verrs), len(want), err)
	}
	for i, p := range want {
		if verrs[i].Path != p {
			t.Fatalf("error %d path = %q, want %q", i, verrs[i].Path, p)
		}
	}
	if !strings.Contains(err.Error(), "11 validation errors") {
		t.Fatalf("unexpected summary: %q", err.Error())
	}
}

func TestValidateTitleLimitCountsRunes(t *testing.T) {
	d := Deck{Name: "n", Groups: []Group{{Name: "g", Cards: []Card{{Title: strings.Repeat("é", MaxTitleRunes), Kind: "item"}}}}}
	if err := Validate(d); err != nil {
		t.Fatalf("64 runes must be accepted: %v", err)
	}
}
