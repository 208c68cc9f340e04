/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestExportAndReadBundle(t *testing.T) {
	d := sampleDeck(4)
	zipPath := filepath.Join(t.TempDir(), "nested", "deck.zip")
	if err := ExportBundle(d, zipPath); err != nil {
		t.Fatalf("export bundle: %v", err)
	}
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	names := map[string]bool{}
	for _, f := range r.File {
		names[f.Name] = true
	}
	_ = r.Close()
	for _, want := range []string{BundleManifest, BundleDeck, BundlePreview, BundleSheets} {
		if !names[want] {
			t.Fatalf("bundle lacks %s: %v", want, names)
		}
	}

	got, err := ReadBundle(zipPath)
	if err != nil {
		t.Fatalf("read bundle: %v", err)
	}
	if got.Name != d.Name || got.CardCount() != 4 {
		t.Fatalf("unexpected deck from bundle: %q with %d cards", got.Name, got.CardCount())
	}
	if !IsBundle(zipPath) || IsBundle("deck.yaml") {
		t.Fatalf("IsBundle misjudges extensions")
	}
}

func TestReadBundleWithoutDeck(t *testing.T) {
	p := filepath.Join(t.TempDir(), "other.zip")
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("readme.txt")
	_, _ = w.Write([]byte("hello"))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadBundle(p); !errors.Is(err, ErrNotBundle) {
		t.Fatalf("expected ErrNotBundle, got %v", err)
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	n, err := WritePDF(sampleDeck(10), &buf, PDFOptions{})
	if err != nil || n != 2 {
		t.Fatalf("WritePDF: n=%d err=%v", n, err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("missing pdf header")
	}
}
