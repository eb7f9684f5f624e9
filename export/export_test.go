// export/export_test.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fieldlength/takeoff/takeoff"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/xuri/excelize/v2"
)

func calculate(t *testing.T, path string, withBFL bool) *takeoff.Summary {
	t.Helper()
	spec, err := takeoff.LoadSpec(path)
	if err != nil {
		t.Fatalf("%s: %v", path, err)
	}
	c, err := takeoff.NewConfiguration(spec)
	if err != nil {
		t.Fatalf("%s: %v", path, err)
	}
	sum, err := takeoff.NewSimulator(c, takeoff.Options{}, nil).Calculate(context.Background(), withBFL)
	if err != nil {
		t.Fatalf("%s: %v", path, err)
	}
	return sum
}

func TestTraceFile(t *testing.T) {
	sum := calculate(t, "../takeoff/testdata/a320.json", false)
	tf := NewTraceFile(sum.Name, sum.Run)

	path := filepath.Join(t.TempDir(), "aeo.trace.zst")
	if err := tf.SaveFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()
	got, err := LoadTraceFile(f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Aircraft != "a320-like" || got.Outcome != takeoff.ReachedObstacle || got.Timestamps != tf.Timestamps {
		t.Errorf("got %s %s %+v", got.Aircraft, got.Outcome, got.Timestamps)
	}
	if len(got.Trace) != len(tf.Trace) {
		t.Fatalf("got %d samples, expected %d", len(got.Trace), len(tf.Trace))
	}
	for i := range got.Trace {
		if got.Trace[i] != tf.Trace[i] {
			t.Errorf("sample %d: got %+v, expected %+v", i, got.Trace[i], tf.Trace[i])
			break
		}
	}
}

func TestTraceFileVersion(t *testing.T) {
	var buf bytes.Buffer
	zw, _ := zstd.NewWriter(&buf)
	if err := msgpack.NewEncoder(zw).Encode(TraceFile{Version: TraceFileVersion + 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	zw.Close()

	if _, err := LoadTraceFile(&buf); !errors.Is(err, ErrTraceVersion) {
		t.Errorf("got %v, expected %v", err, ErrTraceVersion)
	}
	if _, err := LoadTraceFile(strings.NewReader("not a trace")); err == nil {
		t.Errorf("garbage input: expected an error")
	}
}

func TestSummaryJSON(t *testing.T) {
	sum := &takeoff.Summary{Name: "test", AEO: 1500, FAR25: 1725, HasBFL: true, V1: 55, BFL: 1400,
		BalancedField: &takeoff.BalancedField{Monotone: true,
			Samples: []takeoff.FieldSample{{FailureSpeed: 40, Continued: 1600, Aborted: 900}}}}

	var buf bytes.Buffer
	if err := WriteSummaryJSON(&buf, sum); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	// Keys appear in report order rather than alphabetically.
	last := -1
	for _, key := range []string{`"name"`, `"distances_m"`, `"ground_roll"`, `"far25"`, `"duration_s"`,
		`"speeds_mps"`, `"ratios_to_vstall"`, `"alpha_reduction_deg_s"`, `"bounded"`, `"balanced_field"`,
		`"v1_mps"`, `"samples"`} {
		i := strings.Index(out, key)
		if i == -1 {
			t.Errorf("%s missing from:\n%s", key, out)
			continue
		}
		if i < last {
			t.Errorf("%s out of order in:\n%s", key, out)
		}
		last = i
	}
	if strings.Contains(out, "discarded") {
		t.Errorf("empty discarded list written:\n%s", out)
	}

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if bfl := m["balanced_field"].(map[string]any); bfl["length_m"] != 1400. {
		t.Errorf("length: got %v, expected 1400", bfl["length_m"])
	}
}

func TestSummaryJSONWithoutBalancedField(t *testing.T) {
	sum := &takeoff.Summary{Name: "test", AEO: 1500, BFLError: "too few valid failure speed samples"}
	var buf bytes.Buffer
	if err := WriteSummaryJSON(&buf, sum); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	bfl, ok := m["balanced_field"].(map[string]any)
	if !ok {
		t.Fatalf("balanced_field missing from:\n%s", buf.String())
	}
	if bfl["error"] != sum.BFLError {
		t.Errorf("error: got %v, expected %q", bfl["error"], sum.BFLError)
	}
	if _, ok := bfl["length_m"]; ok {
		t.Errorf("length written without a balanced field:\n%s", buf.String())
	}
}

func TestWorkbook(t *testing.T) {
	sum := calculate(t, "../takeoff/testdata/a320.json", false)

	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, sum); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 2 || sheets[0] != SummarySheet || sheets[1] != TraceSheet {
		t.Errorf("sheets: got %v, expected [%s %s]", sheets, SummarySheet, TraceSheet)
	}

	rows, err := f.GetRows(SummarySheet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) == 0 || rows[0][1] != "a320-like" {
		t.Errorf("summary rows: %v", rows)
	}

	rows, err = f.GetRows(TraceSheet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != len(sum.Run.Trace)+1 {
		t.Errorf("trace sheet has %d rows, expected %d", len(rows), len(sum.Run.Trace)+1)
	}
	if rows[0][0] != traceHeader[0] || len(rows[0]) != len(traceHeader) {
		t.Errorf("trace header: got %v", rows[0])
	}
	if last := rows[len(rows)-1]; last[1] != takeoff.ClimbOut.String() {
		t.Errorf("last trace row phase: got %q, expected %q", last[1], takeoff.ClimbOut.String())
	}
}

func TestWorkbookBalancedField(t *testing.T) {
	bf, err := takeoff.SolveBalancedField([]takeoff.FieldSample{
		{FailureSpeed: 40, Continued: 2000, Aborted: 1000},
		{FailureSpeed: 60, Continued: 1500, Aborted: 2000},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sum := &takeoff.Summary{Name: "bfl only", HasBFL: true, V1: bf.V1, BFL: bf.Length, BalancedField: bf}

	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, sum); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(CurveSheet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != takeoff.BFLResolution+1 {
		t.Errorf("curve sheet has %d rows, expected %d", len(rows), takeoff.BFLResolution+1)
	}
	rows, err = f.GetRows(BalancedFieldSheet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, r := range rows {
		if len(r) > 0 && r[0] == "V1" {
			found = true
		}
	}
	if !found {
		t.Errorf("no V1 row in %v", rows)
	}
}

func TestPlots(t *testing.T) {
	sum := calculate(t, "../takeoff/testdata/a320.json", false)

	p, err := PlotTrace(sum.Run.Trace, TraceCharts[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var buf bytes.Buffer
	if err := WritePlot(&buf, p, "png"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Errorf("output is not a PNG")
	}

	if _, err := PlotTrace(sum.Run.Trace[:1], TraceCharts[0]); !errors.Is(err, ErrEmptyPlot) {
		t.Errorf("single sample: got %v, expected %v", err, ErrEmptyPlot)
	}
	if _, err := PlotBalancedField(&takeoff.BalancedField{}); !errors.Is(err, ErrEmptyPlot) {
		t.Errorf("empty balanced field: got %v, expected %v", err, ErrEmptyPlot)
	}

	bf, err := takeoff.SolveBalancedField([]takeoff.FieldSample{
		{FailureSpeed: 40, Continued: 2000, Aborted: 1000},
		{FailureSpeed: 50, Continued: 1800, Aborted: 1400},
		{FailureSpeed: 60, Continued: 1500, Aborted: 2000},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "plots")
	files, err := SavePlots(dir, "a320", sum.Run.Trace, bf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != len(TraceCharts)+1 {
		t.Errorf("got %d files, expected %d", len(files), len(TraceCharts)+1)
	}
	for _, f := range files {
		if fi, err := os.Stat(f); err != nil || fi.Size() == 0 {
			t.Errorf("%s: missing or empty", f)
		}
	}
}
