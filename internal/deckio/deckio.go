/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package deckio reads and writes deck files in JSON, YAML and TOML.
//
// Every decoded document is first checked against the embedded JSON Schema
// (deck.schema.json) and then against the domain rules, so a deck returned
// by Load or Decode is always valid.
package deckio

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dragoneye/internal/domain"

	toml "github.com/pelletier/go-toml/v2"
	gojsonschema "github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed deck.schema.json
var schemaJSON []byte

// Schema returns the JSON Schema deck documents must satisfy.
func Schema() []byte { return append([]byte(nil), schemaJSON...) }

// Format is a deck file encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	TOML Format = "toml"
)

// ErrUnknownFormat is returned for file extensions deckio cannot handle.
var ErrUnknownFormat = errors.New("unknown deck format")

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// SchemaError lists the schema violations of a document.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	if len(e.Problems) == 1 {
		return "deck schema: " + e.Problems[0]
	}
	return fmt.Sprintf("deck schema: %d problems: %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

// Load reads and decodes the deck at path.
func Load(path string) (domain.Deck, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return domain.Deck{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Deck{}, fmt.Errorf("read deck: %w", err)
	}
	d, err := Decode(data, f)
	if err != nil {
		return domain.Deck{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return d, nil
}

// Decode parses data in the given format and validates the result.
func Decode(data []byte, f Format) (domain.Deck, error) {
	doc, err := toJSON(data, f)
	if err != nil {
		return domain.Deck{}, err
	}
	if err := validateSchema(doc); err != nil {
		return domain.Deck{}, err
	}
	var d domain.Deck
	if err := json.Unmarshal(doc, &d); err != nil {
		return domain.Deck{}, fmt.Errorf("decode deck: %w", err)
	}
	if err := domain.Validate(d); err != nil {
		return domain.Deck{}, err
	}
	return d, nil
}

// toJSON normalizes any supported encoding into JSON bytes so that one schema
// covers all formats.
func toJSON(data []byte, f Format) ([]byte, error) {
	switch f {
	case JSON:
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		return data, nil
	case YAML:
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("convert yaml: %w", err)
		}
		return b, nil
	case TOML:
		var v map[string]any
		if err := toml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("convert toml: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

func validateSchema(doc []byte) error {
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validate: %w", err)
	}
	if res.Valid() {
		return nil
	}
	se := &SchemaError{}
	for _, e := range res.Errors() {
		se.Problems = append(se.Problems, e.String())
	}
	return se
}

// Encode serializes d in the given format.
func Encode(d domain.Deck, f Format) ([]byte, error) {
	switch f {
	case JSON:
		b, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal json: %w", err)
		}
		return append(b, '\n'), nil
	case YAML:
		b, err := yaml.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("marshal yaml: %w", err)
		}
		return b, nil
	case TOML:
		b, err := toml.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("marshal toml: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}
