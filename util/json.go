// util/json.go
// Copyright(c) 2022-2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

///////////////////////////////////////////////////////////////////////////
// JSON

// DuplicateJSONKey is a key that appears more than once in the same
// object.
type DuplicateJSONKey struct {
	Path string // dotted path to the object holding the key, e.g. "thrust"
	Key  string
}

func (d DuplicateJSONKey) String() string {
	if d.Path == "" {
		return d.Key
	}
	return d.Path + "." + d.Key
}

// FindDuplicateJSONKeys returns all keys that are repeated within an
// object, in document order. encoding/json silently keeps the last value
// for a repeated key, which hides typos in hand-edited aircraft files.
// Array elements do not contribute to the path. Malformed JSON stops the
// scan; UnmarshalJSONBytes reports the syntax error.
func FindDuplicateJSONKeys(data []byte) []DuplicateJSONKey {
	dec := json.NewDecoder(bytes.NewReader(data))
	var dups []DuplicateJSONKey
	walkJSONValue(dec, nil, &dups)
	return dups
}

func walkJSONValue(dec *json.Decoder, path []string, dups *[]DuplicateJSONKey) bool {
	tok, err := dec.Token()
	if err != nil {
		return false
	}

	switch tok {
	case json.Delim('{'):
		seen := make(map[string]bool)
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return false
			}
			key, _ := kt.(string)
			if seen[key] {
				*dups = append(*dups, DuplicateJSONKey{Path: strings.Join(path, "."), Key: key})
			}
			seen[key] = true

			if !walkJSONValue(dec, append(path[:len(path):len(path)], key), dups) {
				return false
			}
		}
		_, err = dec.Token() // '}'
		return err == nil

	case json.Delim('['):
		for dec.More() {
			if !walkJSONValue(dec, path, dups) {
				return false
			}
		}
		_, err = dec.Token() // ']'
		return err == nil
	}
	return true
}

func UnmarshalJSON[T any](r io.Reader, out *T) error {
	// The whole document is needed to turn offsets into line numbers.
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return UnmarshalJSONBytes(b, out)
}

// UnmarshalJSONBytes decodes b into out, rejecting unknown object keys,
// and reports decoding errors with the line and character where they
// occurred.
func UnmarshalJSONBytes[T any](b []byte, out *T) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()

	err := dec.Decode(out)
	if err == nil {
		if _, terr := dec.Token(); terr != io.EOF {
			line, char := jsonPosition(b, dec.InputOffset())
			return fmt.Errorf("line %d, character %d: unexpected data after the top-level value", line, char)
		}
		return nil
	}

	var serr *json.SyntaxError
	var terr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &serr):
		line, char := jsonPosition(b, serr.Offset)
		return fmt.Errorf("line %d, character %d: %w", line, char, err)

	case errors.As(err, &terr):
		line, char := jsonPosition(b, terr.Offset)
		field := terr.Field
		if field == "" {
			field = terr.Struct
		}
		return fmt.Errorf("line %d, character %d: %s value for %q invalid for type %s: %w",
			line, char, terr.Value, field, terr.Type, err)

	case strings.HasPrefix(err.Error(), "json: unknown field"):
		line, char := jsonPosition(b, dec.InputOffset())
		return fmt.Errorf("line %d, character %d: %w. Is it misspelled?", line, char, err)

	case errors.Is(err, io.EOF):
		return errors.New("empty JSON document")

	default:
		return err
	}
}

func jsonPosition(b []byte, offset int64) (line, char int) {
	line, char = 1, 1
	for i := 0; i < int(offset) && i < len(b); i++ {
		if b[i] == '\n' {
			line++
			char = 1
		} else {
			char++
		}
	}
	return
}
