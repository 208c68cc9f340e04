/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package export

import (
	"archive/zip"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dragoneye/internal/deckio"
	"dragoneye/internal/domain"
	applog "dragoneye/internal/log"
)

// Bundle entry names. The manifest is for humans; readers only need deck.yaml.
const (
	BundleManifest = "bundle.manifest.txt"
	BundleDeck     = "deck.yaml"
	BundlePreview  = "overview.png"
	BundleSheets   = "sheets.pdf"

	maxBundleDeck = 8 << 20
)

// ErrNotBundle is returned when a zip has no deck.yaml entry.
var ErrNotBundle = errors.New("not a deck bundle")

// ExportBundle zips the deck with its overview image and print sheets into a
// single file for sharing. An existing file at destZipPath is replaced.
func ExportBundle(d domain.Deck, destZipPath string) error {
	l := applog.WithOperation(applog.WithComponent("export"), "bundle").With(slog.String("deck", d.Name))
	if strings.TrimSpace(destZipPath) == "" {
		return errors.New("destZipPath is required")
	}
	deckYAML, err := deckio.Encode(d, deckio.YAML)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	// On Windows, remove destination if present before create
	_ = os.Remove(destZipPath)

	zf, err := os.Create(destZipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	zw := zip.NewWriter(zf)

	sheets := 0
	err = func() error {
		manifest := fmt.Sprintf("Dragoneye deck bundle\nCreated: %s\nDeck: %s\nCards: %d\n",
			time.Now().Format(time.RFC3339), d.Name, d.CardCount())
		if err := addEntry(zw, BundleManifest, func(w io.Writer) error {
			_, err := io.WriteString(w, manifest)
			return err
		}); err != nil {
			return err
		}
		if err := addEntry(zw, BundleDeck, func(w io.Writer) error {
			_, err := w.Write(deckYAML)
			return err
		}); err != nil {
			return err
		}
		if err := addEntry(zw, BundlePreview, func(w io.Writer) error {
			return png.Encode(w, RenderPNG(d, PNGOptions{}))
		}); err != nil {
			return err
		}
		if d.CardCount() == 0 {
			return nil
		}
		return addEntry(zw, BundleSheets, func(w io.Writer) error {
			n, err := WritePDF(d, w, PDFOptions{CutGuides: true})
			sheets = n
			return err
		})
	}()
	if cerr := zw.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("finish zip: %w", cerr)
	}
	if cerr := zf.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close zip: %w", cerr)
	}
	if err != nil {
		l.Error("bundle build failed", slog.Any("err", err))
		_ = os.Remove(destZipPath)
		return fmt.Errorf("build bundle: %w", err)
	}
	l.Info("bundle exported", slog.String("zip", destZipPath), slog.Int("sheets", sheets))
	return nil
}

func addEntry(zw *zip.Writer, name string, write func(io.Writer) error) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if err := write(w); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// ReadBundle loads and validates the deck stored in a bundle. Other
// entries are ignored.
func ReadBundle(zipPath string) (domain.Deck, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return domain.Deck{}, fmt.Errorf("open bundle: %w", err)
	}
	defer func() { _ = r.Close() }()
	for _, f := range r.File {
		if f.Name != BundleDeck {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return domain.Deck{}, fmt.Errorf("open %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(io.LimitReader(rc, maxBundleDeck+1))
		_ = rc.Close()
		if err != nil {
			return domain.Deck{}, fmt.Errorf("read %s: %w", f.Name, err)
		}
		if len(data) > maxBundleDeck {
			return domain.Deck{}, fmt.Errorf("%s exceeds %d bytes", f.Name, maxBundleDeck)
		}
		return deckio.Decode(data, deckio.YAML)
	}
	return domain.Deck{}, fmt.Errorf("%w: %s", ErrNotBundle, zipPath)
}

// IsBundle reports whether path names a bundle by extension.
func IsBundle(path string) bool { return strings.EqualFold(filepath.Ext(path), ".zip") }
