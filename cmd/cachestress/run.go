package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/apex/log"
	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"

	"github.com/momentics/hioload-cache/config"
	"github.com/momentics/hioload-cache/internal/stress"
	"github.com/momentics/hioload-cache/pool"
)

const (
	exitOK        = 0
	exitViolation = 1
	exitUsage     = 2
)

// run parses args, executes one stress run and returns the process exit code.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	def := stress.DefaultOptions()

	fs := flag.NewFlagSet("cachestress", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.StringP("config", "c", "", "JSONC file with cache sizing")
	workers := fs.IntP("workers", "w", def.Workers, "concurrent goroutines")
	iterations := fs.IntP("iterations", "n", def.Iterations, "rounds per worker")
	hold := fs.Int("hold", def.Hold, "buffers each worker holds before freeing")
	boxRange := fs.Int64("box-range", def.BoxRange, "boxed values drawn from [0, box-range)")
	seed := fs.Int64("seed", def.Seed, "base random seed")
	reportPath := fs.StringP("report", "o", "", "write JSON report to this file")
	verbose := fs.BoolP("verbose", "v", false, "per-worker debug logging")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Error("load config")
		return exitUsage
	}
	cfg.TrackStats = true

	opts := stress.Options{
		Workers:    *workers,
		Iterations: *iterations,
		Hold:       *hold,
		BoxRange:   *boxRange,
		Seed:       *seed,
	}
	ctxLog := log.WithFields(log.Fields{
		"workers":    opts.Workers,
		"iterations": opts.Iterations,
		"slots":      cfg.BoxSlots,
	})
	ctxLog.Info("starting")

	rep, err := stress.Run(ctx, pool.BufferCacheFromConfig(cfg), pool.IntegerBoxCacheFromConfig[int64](cfg), opts, log.Log)
	if err != nil {
		log.WithError(err).Error("stress run")
		return exitUsage
	}

	if *reportPath != "" {
		if err := writeReport(*reportPath, rep); err != nil {
			log.WithError(err).Error("write report")
			return exitUsage
		}
	}

	if err := rep.Err(); err != nil {
		ctxLog.WithError(err).Error("violation detected")
		return exitViolation
	}
	ctxLog.WithFields(log.Fields{
		"buffer_hits": rep.BufferStats.Hits,
		"box_hits":    rep.BoxStats.Hits,
	}).Info("ok")
	return exitOK
}

func writeReport(path string, rep stress.Report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')
	return atomic.WriteFile(path, bytes.NewReader(data))
}
