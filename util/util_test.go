// util/util_test.go
// Copyright(c) 2022-2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFindDuplicateJSONKeys(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		expected []DuplicateJSONKey
	}{
		{name: "no duplicates", json: `{"a": 1, "b": 2, "c": 3}`},
		{
			name:     "root",
			json:     `{"mass_kg": 1, "cd0": 2, "mass_kg": 3}`,
			expected: []DuplicateJSONKey{{Path: "", Key: "mass_kg"}},
		},
		{
			name:     "nested",
			json:     `{"thrust": {"model": "turbofan", "model": "mach_table"}}`,
			expected: []DuplicateJSONKey{{Path: "thrust", Key: "model"}},
		},
		{
			name: "several levels",
			json: `{"a": 1, "a": 2, "friction": {"speeds": [0], "speeds": [1]}}`,
			expected: []DuplicateJSONKey{
				{Path: "", Key: "a"},
				{Path: "friction", Key: "speeds"},
			},
		},
		{name: "array of objects", json: `{"items": [{"x": 1}, {"x": 2}]}`},
		{
			name:     "inside array element",
			json:     `{"items": [{"x": 1, "x": 2}]}`,
			expected: []DuplicateJSONKey{{Path: "items", Key: "x"}},
		},
		{name: "same key in sibling objects", json: `{"a": {"v": 1}, "b": {"v": 2}}`},
		{name: "malformed", json: `{"a": 1, "a"`, expected: []DuplicateJSONKey{{Path: "", Key: "a"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FindDuplicateJSONKeys([]byte(tt.json))
			if len(result) != len(tt.expected) {
				t.Fatalf("got %d duplicates %v, expected %d", len(result), result, len(tt.expected))
			}
			for i, exp := range tt.expected {
				if result[i] != exp {
					t.Errorf("duplicate %d: got %+v, expected %+v", i, result[i], exp)
				}
			}
		})
	}
}

func TestUnmarshalJSONBytes(t *testing.T) {
	type spec struct {
		Name string  `json:"name"`
		Mass float64 `json:"mass_kg"`
	}

	var s spec
	if err := UnmarshalJSONBytes([]byte(`{"name": "a", "mass_kg": 1000}`), &s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Name != "a" || s.Mass != 1000 {
		t.Errorf("got %+v, expected {a 1000}", s)
	}

	for _, tc := range []struct {
		json, msg string
	}{
		{"{\n  \"name\": \"a\",\n  \"mass_kg\": \"heavy\"\n}", "line 3"},
		{"{\n  \"name\": \"a\",\n  \"mas_kg\": 1\n}", "misspelled"},
		{"{\n  \"name\": \"a\" \"mass_kg\": 1\n}", "line 2"},
		{`{"name": "a"} {}`, "unexpected data"},
		{``, "empty"},
	} {
		err := UnmarshalJSON(strings.NewReader(tc.json), &s)
		if err == nil {
			t.Errorf("%q: expected an error", tc.json)
		} else if !strings.Contains(err.Error(), tc.msg) {
			t.Errorf("%q: got error %q, expected it to mention %q", tc.json, err, tc.msg)
		}
	}
}

func TestErrorLogger(t *testing.T) {
	var e ErrorLogger
	if e.HaveErrors() || e.Err(errors.New("base")) != nil {
		t.Errorf("fresh ErrorLogger reports errors")
	}

	e.ErrorString("top %d", 1)
	e.Push("friction")
	e.Push("speeds")
	e.Error(errors.New("not increasing"))
	e.Pop()
	e.Pop()

	expected := []string{"top 1", "friction / speeds: not increasing"}
	if got := e.Errors(); len(got) != 2 || got[0] != expected[0] || got[1] != expected[1] {
		t.Errorf("got %q, expected %q", got, expected)
	}

	base := errors.New("invalid")
	err := e.Err(base)
	if !errors.Is(err, base) {
		t.Errorf("got %v, expected it to wrap %v", err, base)
	}
	if !strings.Contains(err.Error(), "friction / speeds") {
		t.Errorf("error %q lacks context", err)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Errorf("expected a panic for an unbalanced hierarchy")
			}
		}()
		defer e.CheckDepth(e.CurrentDepth())
		e.Push("leak")
	}()
}

func TestCache(t *testing.T) {
	CacheDir = t.TempDir()
	defer func() { CacheDir = "" }()

	type entry struct {
		Name   string
		Values []float64
	}
	in := entry{Name: "run", Values: []float64{1, 2.5, 3}}
	key := CacheKey("summary", []byte("aircraft"), []byte("options"))
	if key == CacheKey("summary", []byte("aircraftoptions")) {
		t.Errorf("content boundaries do not affect the key")
	}

	if err := CacheStoreObject(key, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out entry
	if _, err := CacheRetrieveObject(key, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Name != in.Name || len(out.Values) != 3 || out.Values[1] != 2.5 {
		t.Errorf("got %+v, expected %+v", out, in)
	}

	if _, err := CacheRetrieveObject("missing", &out); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("got %v, expected %v", err, os.ErrNotExist)
	}

	if err := CacheCullObjects(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(CacheDir, key)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("culling left %s behind", key)
	}
}
