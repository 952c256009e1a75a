package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"ising-mc/internal/config"
	"ising-mc/internal/experiment"
	"ising-mc/internal/logging"
	"ising-mc/internal/metrics"
	"ising-mc/internal/report"
	"ising-mc/internal/store"
	pcore "ising-mc/pkg/core"
)

type kvList []string

func (l *kvList) String() string {
	return strings.Join(*l, ",")
}

func (l *kvList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

// Modes selectable with -mode.
const (
	modeSweep     = "sweep"
	modeHistogram = "histogram"
	modeTrace     = "trace"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "ising-sweep:", err)
		os.Exit(1)
	}
}

type options struct {
	mode      string
	frames    int
	textDir   string
	reference bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	fs := flag.NewFlagSet("ising-sweep", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("config", "", "YAML sweep definition (defaults are used when empty)")
	var opts options
	fs.StringVar(&opts.mode, "mode", modeSweep, "sweep, histogram or trace")
	fs.IntVar(&opts.frames, "frames", 100, "sweeps recorded in trace mode")
	fs.StringVar(&opts.textDir, "text-dir", "", "directory for plain-text snapshots")
	fs.BoolVar(&opts.reference, "reference", false, "append exact reference columns to records (ring and torus lattices)")
	dump := fs.Bool("dump-config", false, "print the effective configuration and exit")
	var overrides kvList
	fs.Var(&overrides, "set", "configuration override in key=value form (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*path)
	if err != nil {
		return err
	}
	kv, err := config.ParseOverrides(overrides)
	if err != nil {
		return err
	}
	if err := cfg.ApplyOverrides(kv); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if *dump {
		b, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = stdout.Write(b)
		return err
	}

	log, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: stderr})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	obs := metrics.New()
	if cfg.Metrics.Listen != "" {
		shutdown, serr := serveMetrics(cfg.Metrics.Listen, obs, log)
		if serr != nil {
			return serr
		}
		defer func() { err = multierr.Append(err, shutdown()) }()
	}

	switch opts.mode {
	case modeSweep:
		return runSweep(ctx, cfg, opts, obs, log, stdout)
	case modeHistogram:
		return runHistogram(ctx, cfg, log, stdout)
	case modeTrace:
		return runTrace(cfg, opts, log, stdout)
	default:
		return fmt.Errorf("unknown mode %q", opts.mode)
	}
}

func runSweep(ctx context.Context, cfg config.File, opts options, obs *metrics.Observer, log *zap.Logger, stdout io.Writer) error {
	exp := cfg.Experiment()
	if opts.textDir != "" {
		exp.Snapshots = true
	}
	res, runErr := experiment.Run(ctx, exp, experiment.WithLogger(log), experiment.WithObserver(obs))
	if runErr != nil && len(res.Records) == 0 {
		return runErr
	}

	var ref *report.Reference
	if opts.reference {
		ref = report.ReferenceFor(exp.Shape)
	}

	err := writeTo(cfg.Output.Records, stdout, func(w io.Writer) error {
		return report.WriteRecords(w, res.Records, ref)
	})
	err = multierr.Append(err, writeSnapshots(cfg.Output.Snapshots, res.Snapshots))
	err = multierr.Append(err, writeTextSnapshots(opts.textDir, res.Snapshots))
	if cfg.Output.Database != "" {
		err = multierr.Append(err, saveRun(ctx, cfg, modeSweep, res.Records, log))
	}
	return multierr.Append(runErr, err)
}

func runHistogram(ctx context.Context, cfg config.File, log *zap.Logger, stdout io.Writer) error {
	runs := cfg.Histogram.Runs
	if runs < 1 {
		runs = 1
	}
	dists, err := experiment.Histogram(ctx, cfg.Experiment(), runs, experiment.WithLogger(log))
	if err != nil {
		return err
	}
	return writeTo(cfg.Output.Records, stdout, func(w io.Writer) error {
		return report.WriteHistogram(w, dists)
	})
}

func runTrace(cfg config.File, opts options, log *zap.Logger, stdout io.Writer) error {
	exp := cfg.Experiment()
	pt := exp.Points()[0]
	frames, err := experiment.Trace(exp.Shape, pt.Params, exp.EquilibrationSweeps, opts.frames, pcore.NewRNG(exp.Seed))
	if err != nil {
		return err
	}
	log.Info("trace recorded", zap.Stringer("params", pt.Params), zap.Int("frames", len(frames)))

	if cfg.Output.Snapshots == "" && opts.textDir == "" {
		for _, f := range frames {
			if err := report.WriteSnapshotText(stdout, f); err != nil {
				return err
			}
		}
		return nil
	}
	return multierr.Append(
		writeSnapshots(cfg.Output.Snapshots, frames),
		writeTextSnapshots(opts.textDir, frames),
	)
}

func writeTo(path string, fallback io.Writer, write func(io.Writer) error) (err error) {
	if path == "" {
		return write(fallback)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()
	return write(f)
}

func writeSnapshots(path string, snaps []experiment.Snapshot) error {
	if path == "" || len(snaps) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w, err := report.NewSnapshotWriter(f)
	if err != nil {
		return multierr.Append(err, f.Close())
	}
	return multierr.Append(w.WriteAll(snaps), w.Close())
}

func writeTextSnapshots(dir string, snaps []experiment.Snapshot) error {
	if dir == "" || len(snaps) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	var errs error
	for i, s := range snaps {
		name := fmt.Sprintf("%04d_%s_T%g_B%g_eps%g_sweep%d.txt", i, s.Stage, s.Temperature, s.Field, s.Anisotropy, s.Sweep)
		errs = multierr.Append(errs, writeTo(filepath.Join(dir, name), nil, func(w io.Writer) error {
			return report.WriteSnapshotText(w, s)
		}))
	}
	return errs
}

func saveRun(ctx context.Context, cfg config.File, mode string, recs []experiment.Record, log *zap.Logger) (err error) {
	db, err := store.Open(cfg.Output.Database)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, db.Close()) }()

	exp := cfg.Experiment()
	id, err := db.SaveRun(ctx, store.Run{
		Mode:          mode,
		Shape:         exp.Shape.String(),
		Seed:          exp.Seed,
		Equilibration: exp.EquilibrationSweeps,
		Sampling:      exp.SamplingSweeps,
		Blocks:        exp.Blocks,
	}, recs)
	if err != nil {
		return err
	}
	log.Info("run stored", zap.String("run", id), zap.String("database", cfg.Output.Database), zap.Int("records", len(recs)))
	return nil
}

func serveMetrics(addr string, obs *metrics.Observer, log *zap.Logger) (func() error, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", obs.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("addr", ln.Addr().String()))
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}, nil
}
