/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package deckio

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"

	"dragoneye/internal/domain"
	applog "dragoneye/internal/log"
)

// BackupSuffix is appended to the previous version of a file on Save.
const BackupSuffix = ".bak"

// Save encodes d by the extension of path and replaces the file atomically.
// An existing file is copied to path+".bak" first.
func Save(path string, d domain.Deck) error {
	l := applog.WithOperation(applog.WithComponent("deckio"), "save").With(slog.String("path", path))
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Encode(d, f)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure deck dir: %w", err)
	}

	if _, statErr := os.Stat(path); statErr == nil {
		if cerr := copyFile(path, path+BackupSuffix); cerr != nil {
			return fmt.Errorf("backup current deck: %w", cerr)
		}
	}

	// Transactional write: to temp file in same directory, then rename over target
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp deck: %w", werr)
	}
	if rerr := os.Rename(temp, path); rerr != nil {
		// Windows cannot rename over an open or existing file in all cases
		_ = os.Remove(path)
		if rerr2 := os.Rename(temp, path); rerr2 != nil {
			_ = os.Remove(temp)
			return fmt.Errorf("replace deck: %w", rerr2)
		}
	}
	l.Debug("deck saved", slog.Int("bytes", len(data)), slog.Int("cards", d.CardCount()))
	return nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
