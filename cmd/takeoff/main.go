// cmd/takeoff/main.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// takeoff computes the takeoff distances of an aircraft described by a
// JSON file and optionally its balanced field length.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fieldlength/takeoff/export"
	"github.com/fieldlength/takeoff/log"
	"github.com/fieldlength/takeoff/takeoff"
	"github.com/fieldlength/takeoff/util"

	"github.com/goforj/godump"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	aircraftFile = flag.String("aircraft", "", "JSON file describing the aircraft and takeoff conditions")
	computeBFL   = flag.Bool("bfl", false, "compute the balanced field length")
	winds        = flag.String("wind", "", "comma-separated headwind components (m/s) to sweep; overrides the file")
	xlsxFile     = flag.String("xlsx", "", "write an XLSX workbook with the summary and traces")
	traceFile    = flag.String("trace", "", "write the all-engines trace (msgpack+zstd)")
	plotDir      = flag.String("plot", "", "write PNG charts to this directory")
	jsonOutput   = flag.Bool("json", false, "print the summary as JSON")
	dump         = flag.Bool("dump", false, "dump the resolved configuration and options")
	metricsAddr  = flag.String("metrics", "", "serve Prometheus metrics at this address (e.g. :9090)")
	logLevel     = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir       = flag.String("logdir", "", "log file directory")
	cpuprofile   = flag.String("cpuprofile", "", "write CPU profile to file")
	memprofile   = flag.String("memprofile", "", "write memory profile to this file")
	search       = flag.String("search", "bracketed", "alpha reduction search: bracketed, fixed")
	workers      = flag.Int("workers", 0, "balanced field worker count (0: all CPUs)")
	noCache      = flag.Bool("nocache", false, "disable the run and result caches")
)

// Cached summaries are kept to this total size.
const maxCacheBytes = 64 << 20

func main() {
	flag.Parse()

	lg := log.New(len(strings.Split(*winds, ",")) > 1, *logLevel, *logDir)
	defer lg.CatchAndReportCrash()

	profiler, err := util.CreateProfiler(*cpuprofile, *memprofile)
	if err != nil {
		lg.Errorf("%v", err)
	}
	defer profiler.Cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *metricsAddr != "" {
		go func() {
			defer lg.CatchAndReportCrash()
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
			lg.Info("serving metrics", "addr", *metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				lg.Errorf("metrics server: %v", err)
			}
		}()
	}

	if err := run(ctx, lg); err != nil {
		lg.Errorf("%v", err)
		fmt.Fprintf(os.Stderr, "takeoff: %v\n", err)
		profiler.Cleanup()
		os.Exit(1)
	}
}

func run(ctx context.Context, lg *log.Logger) error {
	if *aircraftFile == "" {
		flag.Usage()
		return errors.New("-aircraft is required")
	}
	spec, err := takeoff.LoadSpec(*aircraftFile)
	if err != nil {
		return err
	}

	opts := takeoff.Options{Workers: *workers}
	if opts.AlphaSearch, err = takeoff.ParseAlphaSearchStrategy(*search); err != nil {
		return err
	}
	if *noCache {
		opts.CacheSize = -1
	}

	specs, err := windSweep(spec, *winds)
	if err != nil {
		return err
	}

	for _, s := range specs {
		sum, err := evaluate(ctx, s, opts, len(specs) > 1, lg)
		if err != nil {
			return err
		}
		if err := report(sum, s, len(specs) > 1); err != nil {
			return err
		}
	}

	if !*noCache {
		if err := util.CacheCullObjects(maxCacheBytes); err != nil {
			lg.Warnf("culling cache: %v", err)
		}
	}
	return nil
}

// windSweep returns a copy of spec for each wind in the comma-separated
// list, or spec alone if the list is empty.
func windSweep(spec takeoff.Spec, list string) ([]takeoff.Spec, error) {
	if list == "" {
		return []takeoff.Spec{spec}, nil
	}
	var specs []takeoff.Spec
	for _, w := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
		if err != nil {
			return nil, fmt.Errorf("-wind: %w", err)
		}
		s := spec.Clone()
		s.Wind = v
		specs = append(specs, s)
	}
	return specs, nil
}

// needRuns reports whether an output needs the runs behind the summary,
// which are not kept in the result cache.
func needRuns() bool {
	return *xlsxFile != "" || *traceFile != "" || *plotDir != ""
}

func evaluate(ctx context.Context, spec takeoff.Spec, opts takeoff.Options, sweep bool,
	lg *log.Logger) (*takeoff.Summary, error) {
	c, err := takeoff.NewConfiguration(spec)
	if err != nil {
		return nil, err
	}
	sim := takeoff.NewSimulator(c, opts, lg)
	if sweep {
		lg = lg.With("wind", spec.Wind)
	}
	c.Log(lg)

	if *dump {
		godump.Dump(spec, sim.Options())
	}

	useCache := !*noCache && !needRuns()
	var key string
	if useCache {
		key = summaryCacheKey(takeoff.SummaryVersion, spec, sim.Options(), *computeBFL)
		var sum takeoff.Summary
		if t, err := util.CacheRetrieveObject(key, &sum); err == nil {
			lg.Info("using cached summary", "key", key, "stored", t)
			return &sum, nil
		}
	}

	start := time.Now()
	sum, err := sim.Calculate(ctx, *computeBFL)
	if err != nil {
		return nil, err
	}
	lg.Info("calculated", "aircraft", sum.Name, "elapsed", time.Since(start), "aeo", sum.AEO, "bfl", sum.BFL)

	if useCache {
		if err := util.CacheStoreObject(key, sum); err != nil {
			lg.Warnf("%s: unable to cache summary: %v", key, err)
		}
	}
	return sum, nil
}

// summaryCacheKey identifies a stored summary by the code version that
// produced it as well as its inputs.
func summaryCacheKey(version int, spec takeoff.Spec, opts takeoff.Options, bfl bool) string {
	sb, _ := json.Marshal(spec)
	ob, _ := json.Marshal(opts)
	return util.CacheKey("summary", []byte(strconv.Itoa(version)), sb, ob, []byte(strconv.FormatBool(bfl)))
}

// outputPath adds the wind to a file name when sweeping.
func outputPath(path string, wind float64, sweep bool) string {
	if !sweep {
		return path
	}
	ext := filepath.Ext(path)
	if strings.HasSuffix(path, ".trace.zst") {
		ext = ".trace.zst"
	}
	return fmt.Sprintf("%s-wind%g%s", strings.TrimSuffix(path, ext), wind, ext)
}

func report(sum *takeoff.Summary, spec takeoff.Spec, sweep bool) error {
	if sweep {
		sum.Name = fmt.Sprintf("%s (wind %g m/s)", sum.Name, spec.Wind)
	}
	if *jsonOutput {
		if err := export.WriteSummaryJSON(os.Stdout, sum); err != nil {
			return err
		}
	} else {
		sum.Print(os.Stdout)
	}

	if *xlsxFile != "" {
		path := outputPath(*xlsxFile, spec.Wind, sweep)
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := export.WriteWorkbook(f, sum); err != nil {
			f.Close()
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	if *traceFile != "" {
		path := outputPath(*traceFile, spec.Wind, sweep)
		if err := export.NewTraceFile(sum.Name, sum.Run).SaveFile(path); err != nil {
			return err
		}
	}
	if *plotDir != "" {
		prefix := strings.ReplaceAll(spec.Name, " ", "_")
		if prefix == "" {
			prefix = "takeoff"
		}
		if sweep {
			prefix = fmt.Sprintf("%s-wind%g", prefix, spec.Wind)
		}
		if _, err := export.SavePlots(*plotDir, prefix, sum.Run.Trace, sum.BalancedField); err != nil {
			return err
		}
	}
	return nil
}
