package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const emberDeck = "../../../internal/deckio/testdata/ember.yaml"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DCE_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
	t.Setenv("DCE_LOG_LEVEL", "error")
	root := NewRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil || !strings.HasPrefix(out, "dragoneye ") {
		t.Fatalf("version: out=%q err=%v", out, err)
	}
}

func TestValidate(t *testing.T) {
	out, err := run(t, "validate", emberDeck)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, `ok: "Ember Court", 2 groups, 5 cards`) {
		t.Fatalf("unexpected output: %q", out)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("name: Bad\ngroups:\n  - name: G\n    cards:\n      - {id: x, title: X, kind: dragon, cost: 1}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "validate", bad); err == nil {
		t.Fatalf("expected validation failure for unknown kind")
	}
}

func TestConvertRoundTrip(t *testing.T) {
	dir := t.TempDir()
	toml := filepath.Join(dir, "ember.toml")
	if _, err := run(t, "convert", emberDeck, toml); err != nil {
		t.Fatalf("convert: %v", err)
	}
	out, err := run(t, "validate", toml)
	if err != nil || !strings.Contains(out, "5 cards") {
		t.Fatalf("converted deck invalid: out=%q err=%v", out, err)
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "sheets.pdf")
	out, err := run(t, "export", "pdf", emberDeck, pdf, "--guides", "--group", "Fire")
	if err != nil {
		t.Fatalf("export pdf: %v", err)
	}
	if !strings.Contains(out, "(1 sheets)") {
		t.Fatalf("unexpected output: %q", out)
	}
	png := filepath.Join(dir, "overview.png")
	if _, err := run(t, "export", "png", emberDeck, png, "--width", "640", "--height", "400"); err != nil {
		t.Fatalf("export png: %v", err)
	}
	bundle := filepath.Join(dir, "ember.zip")
	if _, err := run(t, "export", "bundle", emberDeck, bundle); err != nil {
		t.Fatalf("export bundle: %v", err)
	}
	if out, err := run(t, "validate", bundle); err != nil || !strings.Contains(out, "5 cards") {
		t.Fatalf("bundle should validate: out=%q err=%v", out, err)
	}
	for _, p := range []string{pdf, png, bundle} {
		if st, err := os.Stat(p); err != nil || st.Size() == 0 {
			t.Fatalf("missing output %s: %v", p, err)
		}
	}
}

func TestLibraryCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "lib.db")
	lib := "--library=" + db

	if out, err := run(t, lib, "library", "list"); err != nil || !strings.Contains(out, "library is empty") {
		t.Fatalf("empty list: out=%q err=%v", out, err)
	}
	if out, err := run(t, lib, "library", "add", emberDeck); err != nil || !strings.Contains(out, `stored "Ember Court" (5 cards)`) {
		t.Fatalf("add: out=%q err=%v", out, err)
	}
	if _, err := run(t, lib, "library", "add", emberDeck, "--name", "Copy"); err != nil {
		t.Fatalf("add copy: %v", err)
	}
	out, err := run(t, lib, "library", "list")
	if err != nil || !strings.Contains(out, "Ember Court") || !strings.Contains(out, "Copy") {
		t.Fatalf("list: out=%q err=%v", out, err)
	}
	out, err = run(t, lib, "library", "search", "flame", "--kind", "spell")
	if err != nil || !strings.Contains(out, "Flame Lance") || !strings.Contains(out, "2 hits") {
		t.Fatalf("search: out=%q err=%v", out, err)
	}
	out, err = run(t, lib, "library", "show", "Copy", "--format", "json")
	if err != nil || !strings.Contains(out, `"Cinder Imp"`) {
		t.Fatalf("show: out=%q err=%v", out, err)
	}
	pdf := filepath.Join(t.TempDir(), "lib.pdf")
	if _, err := run(t, lib, "export", "pdf", "Copy", pdf, "--from-library"); err != nil {
		t.Fatalf("export from library: %v", err)
	}
	if _, err := run(t, lib, "library", "rm", "Copy"); err != nil {
		t.Fatalf("rm: %v", err)
	}
	if _, err := run(t, lib, "library", "rm", "Copy"); err == nil {
		t.Fatalf("second rm should fail")
	}
}

func TestReplay(t *testing.T) {
	out, err := run(t, "replay", emberDeck, "../../../internal/replay/testdata/pan_and_select.yaml")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	var last map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &last); err != nil {
		t.Fatalf("last line is not JSON: %q", lines[len(lines)-1])
	}
	if last["event"] != "summary" {
		t.Fatalf("expected summary last, got %v", last)
	}
	if !strings.Contains(out, `"event":"transform"`) || !strings.Contains(out, `"phase":"start"`) {
		t.Fatalf("expected transform and selection events:\n%s", out)
	}

	quiet, err := run(t, "replay", "-q", emberDeck, "../../../internal/replay/testdata/pan_and_select.yaml")
	if err != nil || strings.Count(strings.TrimSpace(quiet), "\n") != 0 {
		t.Fatalf("quiet replay should print one line: %q err=%v", quiet, err)
	}
}
