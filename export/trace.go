// export/trace.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package export writes simulation results for use outside the
// simulator: trace files, spreadsheets, charts and JSON summaries.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fieldlength/takeoff/takeoff"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// TraceFileVersion is bumped whenever TraceFile changes incompatibly.
const TraceFileVersion = 1

var ErrTraceVersion = errors.New("unsupported trace file version")

// TraceFile is the on-disk form of a single run. Trace files are
// msgpack-encoded TraceFiles compressed with zstd.
type TraceFile struct {
	Version        int
	Aircraft       string
	FailureSpeed   float64
	Aborted        bool
	AlphaReduction float64
	Outcome        takeoff.Outcome
	Timestamps     takeoff.EventTimestamps
	VLO, V2        float64
	Trace          takeoff.Trace
}

func NewTraceFile(aircraft string, r *takeoff.RunResult) *TraceFile {
	return &TraceFile{
		Version:        TraceFileVersion,
		Aircraft:       aircraft,
		FailureSpeed:   r.FailureSpeed,
		Aborted:        r.Aborted,
		AlphaReduction: r.AlphaReduction,
		Outcome:        r.Outcome,
		Timestamps:     r.Timestamps,
		VLO:            r.VLO,
		V2:             r.V2,
		Trace:          r.Trace,
	}
}

func (tf *TraceFile) Save(w io.Writer) error {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	defer zw.Close()

	if err := msgpack.NewEncoder(zw).Encode(tf); err != nil {
		return fmt.Errorf("failed to encode trace: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to close zstd writer: %w", err)
	}
	return nil
}

func (tf *TraceFile) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := tf.Save(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

func LoadTraceFile(r io.Reader) (*TraceFile, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zr.Close()

	var tf TraceFile
	if err := msgpack.NewDecoder(zr).Decode(&tf); err != nil {
		return nil, fmt.Errorf("failed to decode trace: %w", err)
	}
	if tf.Version != TraceFileVersion {
		return nil, fmt.Errorf("version %d: %w", tf.Version, ErrTraceVersion)
	}
	return &tf, nil
}
