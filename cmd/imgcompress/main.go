// Command imgcompress compresses image files and directories.  Each input is
// decoded, shrunk to fit --max-size, re-encoded at --quality as --format and
// written to --out as "<name>-compressed.<ext>".  With --watch it keeps
// running and compresses files as they appear.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	imageprocessor "github.com/Skryldev/image-compressor"
	"github.com/Skryldev/image-compressor/adapters/storage"
	"github.com/Skryldev/image-compressor/config"
	"github.com/Skryldev/image-compressor/core"
	apperrors "github.com/Skryldev/image-compressor/errors"
	"github.com/Skryldev/image-compressor/hooks"
)

// options holds the flags that are not part of config.Config.
type options struct {
	configPath  string
	jsonReport  bool
	watch       bool
	printConfig bool
}

func newFlagSet(opts *options) *pflag.FlagSet {
	d := config.Default()
	fs := pflag.NewFlagSet("imgcompress", pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: imgcompress [flags] <file|dir>...\n\n")
		fs.PrintDefaults()
	}

	fs.StringVarP(&opts.configPath, "config", "c", "", "path to a YAML/JSON/TOML config file")
	fs.BoolVar(&opts.jsonReport, "json", false, "print the report as JSON")
	fs.BoolVarP(&opts.watch, "watch", "w", false, "watch the input directories and compress new files")
	fs.BoolVar(&opts.printConfig, "print-config", false, "print the effective configuration and exit")

	// Bound to config keys through config.FlagKeys.
	fs.IntP("quality", "q", d.Quality, "output quality 0-100")
	fs.IntP("max-size", "m", d.MaxDimension, "maximum width/height in pixels, 0 keeps the original size")
	fs.StringP("format", "f", d.Format, "output format: original, jpeg, png or webp")
	fs.StringP("out", "o", d.OutputDir, "output directory")
	fs.Int("workers", d.WorkerCount, "files processed concurrently, 0 uses every CPU")
	fs.String("resampler", d.Resampler, "resampling filter: bilinear, catmullrom or lanczos3")
	fs.String("png-compression", d.PNGCompression, "PNG compression: default, none, speed or best")
	fs.Int64("max-bytes", d.MaxImageBytes, "reject inputs larger than this many bytes, 0 disables the limit")
	fs.Bool("meta", d.WriteMeta, "write a .meta.json side-car next to each output")
	fs.String("log-level", d.Log.Level, "log level: debug, info, warn or error")
	fs.String("log-format", d.Log.Format, "log format: console or json")
	fs.String("log-file", d.Log.File, "also write JSON logs to this rotated file")
	return fs
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var opts options
	fs := newFlagSet(&opts)
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(opts.configPath, fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "imgcompress: %v\n", err)
		return 2
	}
	if opts.printConfig {
		out, err := config.Dump(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "imgcompress: %v\n", err)
			return 1
		}
		os.Stdout.Write(out)
		return 0
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	params, err := imageprocessor.ParamsFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "imgcompress: %v\n", err)
		return 2
	}

	logger, err := hooks.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "imgcompress: %v\n", err)
		return 2
	}
	defer logger.Sync() //nolint:errcheck

	sink, err := storage.NewLocal(cfg.OutputDir, 0o644)
	if err != nil {
		logger.Error("storage.init", "error", err)
		return 1
	}

	proc, closeBackend := newProcessor(cfg)
	defer closeBackend()
	metrics := hooks.NewInMemoryMetrics()
	proc.SetLogger(logger)
	proc.SetMetrics(metrics)
	proc.AddHook(hooks.NewMetricsHook(metrics))
	if cfg.Log.Level == "debug" {
		proc.AddHook(hooks.NewLoggingHook(logger))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{
		cfg:     cfg,
		params:  params,
		proc:    proc,
		sink:    sink,
		logger:  logger,
		metrics: metrics,
		report:  newReporter(os.Stdout, opts.jsonReport),
	}
	if opts.watch {
		if err := a.watch(ctx, fs.Args()); err != nil {
			logger.Error("watch.failed", "error", err)
			return 1
		}
		return 0
	}
	return a.batch(ctx, fs.Args())
}

// app is one CLI invocation.
type app struct {
	cfg     config.Config
	params  core.Params
	proc    *imageprocessor.Processor
	sink    *storage.Local
	logger  *hooks.ZapLogger
	metrics *hooks.InMemoryMetrics
	report  *reporter
}

// batch compresses every input once and returns the exit code: 0 when every
// file succeeded, 1 otherwise.
func (a *app) batch(ctx context.Context, args []string) int {
	files, err := collectInputs(args, a.sink.Root())
	if err != nil {
		a.logger.Error("inputs.failed", "error", err)
		return 1
	}

	sources, readErrs := readInputs(ctx, files, a.cfg)
	outcomes := a.proc.ProcessBatch(ctx, sources, a.params)

	// Outputs keep the input's subdirectory so equal names in different
	// directories do not overwrite each other.
	keys := outputKeys{}
	var failed, next int
	for i, in := range files {
		if readErrs[i] != nil {
			failed++
			a.report.failure(readErrs[i])
			continue
		}
		o := outcomes[next]
		next++
		if !o.OK() {
			failed++
			a.report.failure(o.Err)
			continue
		}
		key := keys.claim(in.Dir, o.Result)
		if err := a.store(ctx, key, o.Result); err != nil {
			failed++
			a.report.failure(apperrors.WithFile(err, apperrors.CategoryStorage, o.Result.Name))
			continue
		}
		a.report.success(o.Result, a.sink.Path(key))
	}
	a.report.finish(a.metrics.Snapshot())

	if failed > 0 {
		return 1
	}
	return 0
}
