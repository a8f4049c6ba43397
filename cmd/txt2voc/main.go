// Converts a dataset with plain-text bounding box annotations to Pascal VOC XML annotations.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sensorable/txt2voc"
	"github.com/sensorable/txt2voc/internal/config"
	"github.com/sensorable/txt2voc/internal/log"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
)

// cliArgs is the result of parsing the command line.
type cliArgs struct {
	dataset    string
	configPath string
	flags      config.Config // Flag values, including defaults for unset flags.
	set        []string      // Names of the flags that were set.
	postParse  func()        // Stores flag values that need conversion.
}

// newFlagSet defines the command line flags, storing their values in args.
func newFlagSet(args *cliArgs, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("txt2voc", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(output, "Usage of %s:\n", filepath.Base(os.Args[0]))
		_, _ = fmt.Fprintf(output, "  %s [flags] <dataset>\n\n", filepath.Base(os.Args[0]))
		_, _ = fmt.Fprintln(output, "  Convert a dataset with TXT annotations to XML annotations, respecting"+
			" the Pascal VOC format.")
		_, _ = fmt.Fprintln(output, "  The dataset must contain Images/, Annotations/ and infos/categories.txt.")
		_, _ = fmt.Fprintln(output)
		fs.PrintDefaults()
	}

	c := &args.flags
	*c = config.Default()

	fs.StringVar(&args.configPath, "config", "", "The YAML configuration file `path`")

	// Output arguments.
	fs.StringVar(&c.OutputDir, "output_dir", c.OutputDir,
		"The `directory` within the dataset where to save the annotations")
	fs.BoolVar(&c.Force, "force", c.Force,
		"Write into the output directory even if it already exists")
	fs.BoolVar(&c.Force, "yes", c.Force, "Alias for -force")
	fs.BoolVar(&c.Interactive, "interactive", c.Interactive,
		"Ask before writing into an existing output directory")
	fs.StringVar(&c.Report, "report", c.Report, "Write a JSON summary of the run to `path`")

	// Input arguments.
	fs.StringVar(&c.LabelExt, "label-ext", c.LabelExt,
		"Only convert annotation files with this `suffix` (empty converts all files)")
	fs.StringVar(&c.ImageExt, "image-ext", c.ImageExt,
		"The file `extension` of the images matching the annotation files")
	fs.IntVar(&c.Workers, "workers", c.Workers, "The number of files converted concurrently")

	// Header values.
	fs.StringVar(&c.Database, "database", c.Database, "The value for source/database")
	fs.StringVar(&c.Owner, "owner", c.Owner, "The value for owner/company")

	// Label arguments.
	mapLabels := fs.String("map-labels", "",
		"Comma-separated list of old=new label (sub-)string replacements")
	filterLabels := fs.String("filter-labels", "",
		"Comma-separated list of labels to keep (after map-labels; empty string keeps all)")

	// Image processing arguments.
	fs.StringVar(&c.Images.OutDir, "images-out", c.Images.OutDir,
		"The `path` to the image output directory (enables image output)")
	fs.IntVar(&c.Images.ResizeLonger, "resize-longer", c.Images.ResizeLonger,
		"The target `length` for the longer side of the image (zero to keep aspect ratio)")
	fs.IntVar(&c.Images.ResizeShorter, "resize-shorter", c.Images.ResizeShorter,
		"The target `length` for the shorter side of the image (zero to keep aspect ratio)")
	fs.StringVar(&c.Images.DownsampleFilter, "downsample-filter", c.Images.DownsampleFilter,
		"The filter to use when downsampling an image {nearest, box, linear, gaussian, lanczos}")
	fs.StringVar(&c.Images.UpsampleFilter, "upsample-filter", c.Images.UpsampleFilter,
		"The filter to use when upsampling an image {nearest, box, linear, gaussian, lanczos}")
	fs.StringVar(&c.Images.Encoding, "image-enc", c.Images.Encoding,
		"The `encoding` for output images {jpg, png}")
	fs.IntVar(&c.Images.JPEGQuality, "jpeg-quality", c.Images.JPEGQuality,
		"The quality to use when encoding JPEGs [1, 100]")

	// TFRecord arguments.
	fs.StringVar(&c.TFRecord.Path, "tfrecord", c.TFRecord.Path,
		"Also write the annotations as TFRecord to `path`")
	fs.StringVar(&c.TFRecord.LabelMap, "tfrecord-label-map", c.TFRecord.LabelMap,
		"The TFRecord label map file `path`")
	fs.IntVar(&c.TFRecord.Shards, "num-shards", c.TFRecord.Shards,
		"The number of TFRecord shard files to create")

	// Logging arguments.
	fs.StringVar(&c.Log.Level, "log-level", c.Log.Level, "The log `level`")
	fs.StringVar(&c.Log.File, "log-file", c.Log.File, "Also write the log to `path`")

	// The list flags are stored once parsing is done.
	args.postParse = func() {
		c.MapLabels = splitList(*mapLabels)
		c.FilterLabels = splitList(*filterLabels)
	}

	return fs
}

// splitList splits a comma-separated list. The empty string yields nil.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// parseArgs parses the command line. Flags may be given before and after the dataset path.
func parseArgs(argv []string, output io.Writer) (*cliArgs, error) {
	args := &cliArgs{}
	fs := newFlagSet(args, output)

	var positional []string
	for rest := argv; ; {
		if err := fs.Parse(rest); err != nil {
			return nil, err
		}
		rest = fs.Args()
		if len(rest) == 0 {
			break
		}
		positional = append(positional, rest[0])
		rest = rest[1:]
	}
	args.postParse()

	if len(positional) != 1 {
		fs.Usage()
		return nil, fmt.Errorf("expected exactly one dataset path, got %d", len(positional))
	}
	args.dataset = positional[0]

	fs.Visit(func(f *flag.Flag) {
		args.set = append(args.set, f.Name)
	})

	return args, nil
}

// loadConfig layers the configuration: defaults, the config file, the environment and finally the
// flags that were set on the command line.
func loadConfig(args *cliArgs) (config.Config, error) {
	cfg, err := config.Load(args.configPath)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}

	f := &args.flags
	for _, name := range args.set {
		switch name {
		case "output_dir":
			cfg.OutputDir = f.OutputDir
		case "force", "yes":
			cfg.Force = f.Force
		case "interactive":
			cfg.Interactive = f.Interactive
		case "report":
			cfg.Report = f.Report
		case "label-ext":
			cfg.LabelExt = f.LabelExt
		case "image-ext":
			cfg.ImageExt = f.ImageExt
		case "workers":
			cfg.Workers = f.Workers
		case "database":
			cfg.Database = f.Database
		case "owner":
			cfg.Owner = f.Owner
		case "map-labels":
			cfg.MapLabels = f.MapLabels
		case "filter-labels":
			cfg.FilterLabels = f.FilterLabels
		case "images-out":
			cfg.Images.OutDir = f.Images.OutDir
		case "resize-longer":
			cfg.Images.ResizeLonger = f.Images.ResizeLonger
		case "resize-shorter":
			cfg.Images.ResizeShorter = f.Images.ResizeShorter
		case "downsample-filter":
			cfg.Images.DownsampleFilter = f.Images.DownsampleFilter
		case "upsample-filter":
			cfg.Images.UpsampleFilter = f.Images.UpsampleFilter
		case "image-enc":
			cfg.Images.Encoding = f.Images.Encoding
		case "jpeg-quality":
			cfg.Images.JPEGQuality = f.Images.JPEGQuality
		case "tfrecord":
			cfg.TFRecord.Path = f.TFRecord.Path
		case "tfrecord-label-map":
			cfg.TFRecord.LabelMap = f.TFRecord.LabelMap
		case "num-shards":
			cfg.TFRecord.Shards = f.TFRecord.Shards
		case "log-level":
			cfg.Log.Level = f.Log.Level
		case "log-file":
			cfg.Log.File = f.Log.File
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// converterOptions maps the configuration to the converter options.
func converterOptions(cfg config.Config, stdin io.Reader, stdout io.Writer) txt2voc.Options {
	opts := txt2voc.Options{
		OutputDir:     cfg.OutputDir,
		Force:         cfg.Force,
		LabelExt:      cfg.LabelExt,
		ImageExt:      cfg.ImageExt,
		Database:      cfg.Database,
		Owner:         cfg.Owner,
		LabelMappings: cfg.MapLabels,
		FilterLabels:  cfg.FilterLabels,
		Images: txt2voc.ImageOptions{
			OutDir:             cfg.Images.OutDir,
			LongerSide:         cfg.Images.ResizeLonger,
			ShorterSide:        cfg.Images.ResizeShorter,
			DownsamplingFilter: cfg.Images.DownsampleFilter,
			UpsamplingFilter:   cfg.Images.UpsampleFilter,
			Encoding:           cfg.Images.Encoding,
			JPEGQuality:        cfg.Images.JPEGQuality,
		},
		Workers:          cfg.Workers,
		TFRecordPath:     cfg.TFRecord.Path,
		TFRecordLabelMap: cfg.TFRecord.LabelMap,
		TFRecordShards:   cfg.TFRecord.Shards,
		ReportPath:       cfg.Report,
	}
	if cfg.Interactive {
		opts.Confirm = func(dir string) (bool, error) {
			return txt2voc.ConfirmOverwrite(stdin, stdout, dir)
		}
	}
	return opts
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, argv []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(argv) == 0 {
		args := &cliArgs{}
		newFlagSet(args, stderr).Usage()
		return exitError
	}

	args, err := parseArgs(argv, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		_, _ = fmt.Fprintln(stderr, err)
		return exitError
	}

	cfg, err := loadConfig(args)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, &txt2voc.ConfigurationError{What: "configuration", Err: err})
		return exitError
	}

	logger, err := log.NewLogger(log.Options{Level: cfg.Log.Level, File: cfg.Log.File,
		Output: stderr})
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return exitError
	}

	converter := txt2voc.NewConverter(converterOptions(cfg, stdin, stdout), logger)
	summary, err := converter.Run(ctx, args.dataset)
	if errors.Is(err, txt2voc.ErrUserAbort) {
		logger.Warn("Aborted: ", err)
		return exitError
	} else if err != nil {
		logger.WithFields(log.Fields{
			"run_id": summary.RunID,
			"files":  summary.Files,
		}).Error("Conversion failed: ", err)
		return exitError
	}

	logger.WithField("run_id", summary.RunID).Infof(
		"Converted %d files with %d objects in %s", summary.Files, summary.Objects,
		summary.Duration)
	return exitOK
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
