package txt2voc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Options configures a Converter. The zero value converts every file in the annotations
// directory into DefaultOutputDir, refusing to write into an existing directory.
type Options struct {
	OutputDir string // The output directory name within the dataset.

	// Force allows writing into an existing output directory. Otherwise Confirm, if set, is asked.
	Force   bool
	Confirm func(dir string) (bool, error)

	LabelExt string // Only annotation files with this suffix are converted; empty for all.
	ImageExt string // The extension of the images matching the annotation files.

	Database string // Written to source/database.
	Owner    string // Written to owner/company.

	LabelMappings []string // old=new label (sub-)string replacements.
	FilterLabels  []string // Labels to keep after mapping; empty keeps all.

	Images ImageOptions // Optional image output.

	Workers int // The number of files converted concurrently.

	TFRecordPath     string // Optional TFRecord output path.
	TFRecordLabelMap string // Optional label map output path for the TFRecord output.
	TFRecordShards   int    // The number of TFRecord shard files.

	ReportPath string // Optional path of a JSON run summary.
}

// Default header values.
const (
	DefaultDatabase = "Foodinc"
	DefaultOwner    = "FiNC"
)

// Converter converts a dataset of plain-text annotations to Pascal VOC XML files.
type Converter struct {
	opts Options
	log  logrus.FieldLogger
}

// NewConverter returns a Converter for opts, filling in defaults. A nil logger uses the standard
// logrus logger.
func NewConverter(opts Options, logger logrus.FieldLogger) *Converter {
	if opts.OutputDir == "" {
		opts.OutputDir = DefaultOutputDir
	}
	if opts.ImageExt == "" {
		opts.ImageExt = DefaultImageExt
	}
	if opts.Database == "" {
		opts.Database = DefaultDatabase
	}
	if opts.Owner == "" {
		opts.Owner = DefaultOwner
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Converter{opts: opts, log: logger}
}

// conversion is the state shared by the per-file tasks of a run.
type conversion struct {
	dataset    *Dataset
	categories Categories
	header     VOCHeader
	outDir     string
	mappings   []LabelMapping
	images     *imageProcessor
	log        logrus.FieldLogger
}

// Run converts the dataset at root. Files are converted in file name order. The first error
// stops the run; XML files written until then are left in place.
//
// The returned Summary describes the written files, also when an error is returned.
func (c *Converter) Run(ctx context.Context, root string) (summary Summary, err error) {
	summary = Summary{RunID: uuid.NewString(), Dataset: root, Started: time.Now()}
	log := c.log.WithField("run_id", summary.RunID)

	defer func() {
		summary.Duration = time.Since(summary.Started)
		if err != nil {
			summary.Error = err.Error()
		}
		if c.opts.ReportPath == "" {
			return
		}
		if reportErr := WriteReport(c.opts.ReportPath, summary); reportErr != nil {
			log.WithError(reportErr).Warn("Failed to write the report")
		}
	}()

	conv, err := c.prepare(root, log)
	if err != nil {
		return summary, err
	}
	summary.OutputDir = conv.outDir

	labelFiles, err := filesByExtInDir(conv.dataset.AnnotationsDir, c.opts.LabelExt)
	if err != nil {
		return summary, err
	}
	log.Infof("Converting annotations for %d files", len(labelFiles))

	results := make(AnnotatedFiles, len(labelFiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for i, labelPath := range labelFiles {
		if gctx.Err() != nil {
			break
		}
		i, labelPath := i, labelPath
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fileData, err := conv.convertFile(labelPath, c.opts)
			if err != nil {
				return fmt.Errorf("failed to convert %q: %w", labelPath, err)
			}
			results[i] = fileData
			return nil
		})
	}
	err = g.Wait()

	// Keep the successfully converted files only.
	converted := results[:0]
	for _, fileData := range results {
		if fileData.LabelPath != "" {
			converted = append(converted, fileData)
		}
	}
	summary.Files = len(converted)
	summary.Objects = converted.NumAnnotations()
	if err != nil {
		return summary, err
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	log.Infof("Successfully wrote annotations for %d files to %s", summary.Files, conv.outDir)

	if c.opts.TFRecordPath != "" {
		err := WriteTFRecord(c.opts.TFRecordPath, c.opts.TFRecordLabelMap, converted,
			conv.categories, c.opts.TFRecordShards)
		if err != nil {
			return summary, err
		}
		log.Infof("Successfully wrote TFRecords for %d files to %s", len(converted),
			c.opts.TFRecordPath)
	}

	return summary, nil
}

// prepare validates the dataset and options, loads the categories and creates the output
// directories. Nothing is written if an error is returned before the output directory is
// checked.
func (c *Converter) prepare(root string, log logrus.FieldLogger) (*conversion, error) {
	dataset, err := OpenDataset(root)
	if err != nil {
		return nil, err
	}

	mappings, err := ParseLabelMappings(c.opts.LabelMappings)
	if err != nil {
		return nil, &ConfigurationError{What: "label mappings", Err: err}
	}
	images, err := newImageProcessor(c.opts.Images)
	if err != nil {
		return nil, &ConfigurationError{What: "image options", Err: err}
	}

	categories, err := LoadCategories(dataset.CategoriesFile)
	if err != nil {
		return nil, err
	}
	log.Infof("Loaded %d categories", len(categories))

	outDir := dataset.OutputDir(c.opts.OutputDir)
	if err := c.prepareOutputDir(outDir); err != nil {
		return nil, err
	}
	if images != nil {
		if err := os.MkdirAll(images.outDir, 0755); err != nil {
			return nil, fmt.Errorf("cannot create directory %q: %w", images.outDir, err)
		}
	}

	return &conversion{
		dataset:    dataset,
		categories: categories,
		header: VOCHeader{
			Folder:   dataset.Folder(),
			Database: c.opts.Database,
			Owner:    c.opts.Owner,
		},
		outDir:   outDir,
		mappings: mappings,
		images:   images,
		log:      log,
	}, nil
}

// prepareOutputDir creates dir, or, if it exists, checks that it may be written to.
func (c *Converter) prepareOutputDir(dir string) error {
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("cannot create directory %q: %w", dir, err)
		}
		return nil
	} else if err != nil {
		return fmt.Errorf("cannot access directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return &ConfigurationError{What: "output directory", Err: fmt.Errorf("%q is not a directory", dir)}
	}

	if c.opts.Force {
		return nil
	}
	if c.opts.Confirm != nil {
		ok, err := c.opts.Confirm(c.opts.OutputDir)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return ErrUserAbort
}

// convertFile converts the annotation file at labelPath and writes the XML file.
func (conv *conversion) convertFile(labelPath string, opts Options) (AnnotatedFile, error) {
	baseName := textBaseName(labelPath)
	log := conv.log.WithField("file", filepath.Base(labelPath))

	fileData, err := ParseTextFile(labelPath, conv.dataset.ImagePath(baseName, opts.ImageExt),
		conv.categories)
	if err != nil {
		return AnnotatedFile{}, err
	}

	if n := fileData.MapLabels(conv.mappings); n > 0 {
		log.Debugf("The label mappings changed %d labels", n)
	}
	if n := fileData.FilterLabels(opts.FilterLabels); n > 0 {
		log.Debugf("Filtered out %d labels", n)
	}

	if conv.images != nil {
		if err := conv.images.process(&fileData); err != nil {
			return AnnotatedFile{}, err
		}
	}

	outPath := filepath.Join(conv.outDir, baseName+".xml")
	if err := WriteVOC(outPath, ToVOC(fileData, conv.header)); err != nil {
		return AnnotatedFile{}, err
	}
	log.WithField("objects", len(fileData.Annotations)).Debug("Wrote ", outPath)

	return fileData, nil
}
