package txt2voc

import (
	"fmt"
	"image"
	_ "image/jpeg" // Register decoders for image.DecodeConfig.
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageOptions controls the optional image output. Images are only written when OutDir is set.
type ImageOptions struct {
	OutDir             string // The output directory for processed images.
	LongerSide         int    // Target length of the longer side; 0 derives it from ShorterSide.
	ShorterSide        int    // Target length of the shorter side; 0 derives it from LongerSide.
	DownsamplingFilter string // {nearest, box, linear, gaussian, lanczos}
	UpsamplingFilter   string // {nearest, box, linear, gaussian, lanczos}
	Encoding           string // {jpg, png}
	JPEGQuality        int    // [1, 100]
}

// imageProcessor is the validated form of ImageOptions.
type imageProcessor struct {
	outDir      string
	longerSide  int
	shorterSide int
	downsample  imaging.ResampleFilter
	upsample    imaging.ResampleFilter
	fileExt     string
	jpegQuality int
}

// newImageProcessor validates opts. It returns nil if no image output was requested.
func newImageProcessor(opts ImageOptions) (*imageProcessor, error) {
	if opts.OutDir == "" {
		return nil, nil
	}
	if opts.LongerSide < 0 || opts.ShorterSide < 0 {
		return nil, fmt.Errorf("invalid target image size %d/%d", opts.LongerSide, opts.ShorterSide)
	}

	p := &imageProcessor{
		outDir:      opts.OutDir,
		longerSide:  opts.LongerSide,
		shorterSide: opts.ShorterSide,
		jpegQuality: opts.JPEGQuality,
	}

	var err error
	if p.downsample, err = resampleFilter(opts.DownsamplingFilter, imaging.Box); err != nil {
		return nil, err
	}
	if p.upsample, err = resampleFilter(opts.UpsamplingFilter, imaging.Linear); err != nil {
		return nil, err
	}

	// Select the output file extension based on the requested encoding.
	switch strings.ToLower(opts.Encoding) {
	case "", "jpg", "jpeg":
		p.fileExt = ".jpg"
	case "png":
		p.fileExt = ".png"
	default:
		return nil, fmt.Errorf("unsupported output encoding %q", opts.Encoding)
	}

	if p.jpegQuality < 1 || p.jpegQuality > 100 {
		p.jpegQuality = 92
	}

	return p, nil
}

// resampleFilter returns the filter with the given name, or def if name is empty.
func resampleFilter(name string, def imaging.ResampleFilter) (imaging.ResampleFilter, error) {
	switch name {
	case "":
		return def, nil
	case "nearest":
		return imaging.NearestNeighbor, nil
	case "box":
		return imaging.Box, nil
	case "linear":
		return imaging.Linear, nil
	case "gaussian":
		return imaging.Gaussian, nil
	case "lanczos":
		return imaging.Lanczos, nil
	}
	return imaging.ResampleFilter{}, fmt.Errorf("unknown resampling filter %q", name)
}

func (p *imageProcessor) resizes() bool {
	return p.longerSide > 0 || p.shorterSide > 0
}

// process writes the image of f to the output directory, resized if requested, and updates f to
// describe the written image. Coordinates are rescaled along with the image.
func (p *imageProcessor) process(f *AnnotatedFile) error {
	img, err := imaging.Open(f.FilePath)
	if err != nil {
		return &ImageReadError{Path: f.FilePath, Err: err}
	}

	if p.resizes() {
		var scaleWidth, scaleHeight float64
		img, scaleWidth, scaleHeight = resizeImage(img, p.longerSide, p.shorterSide,
			p.downsample, p.upsample)
		f.scaleCoords(scaleWidth, scaleHeight)
	}

	outPath := filepath.Join(p.outDir, textBaseName(f.FilePath)+p.fileExt)
	if err := imaging.Save(img, outPath, imaging.JPEGQuality(p.jpegQuality)); err != nil {
		return fmt.Errorf("failed to save image %q: %w", outPath, err)
	}

	bounds := img.Bounds()
	f.FilePath = outPath
	f.Width = bounds.Dx()
	f.Height = bounds.Dy()

	return nil
}

// targetSize calculates the output dimensions for an image of size width x height so that its
// longer and shorter sides match longerSide and shorterSide. One of them may be zero, in which
// case the aspect ratio is kept.
func targetSize(width, height, longerSide, shorterSide int) (int, int) {
	imgLonger, imgShorter := width, height
	isLandscape := width >= height
	if !isLandscape {
		imgLonger, imgShorter = height, width
	}

	if longerSide <= 0 {
		longerSide = int(math.Round(float64(shorterSide) * float64(imgLonger) / float64(imgShorter)))
	} else if shorterSide <= 0 {
		shorterSide = int(math.Round(float64(longerSide) * float64(imgShorter) / float64(imgLonger)))
	}

	if isLandscape {
		return longerSide, shorterSide
	}
	return shorterSide, longerSide
}

// resizeImage resamples the image to match the longer and shorter sides (one may be 0).
//
// Returns the resized image along with the width and height scale factors.
func resizeImage(img image.Image, longerSide, shorterSide int,
	downsamplingFilter, upsamplingFilter imaging.ResampleFilter) (
	resized image.Image, scaleWidth, scaleHeight float64) {

	bounds := img.Bounds()
	width, height := targetSize(bounds.Dx(), bounds.Dy(), longerSide, shorterSide)

	// Select the filter based on the direction of the rescaling operation.
	filter := upsamplingFilter
	if width*height < bounds.Dx()*bounds.Dy() {
		filter = downsamplingFilter
	}

	resized = imaging.Resize(img, width, height, filter)
	return resized, float64(width) / float64(bounds.Dx()), float64(height) / float64(bounds.Dy())
}

// decodeImageConfig opens the file at path and returns the results of image.DecodeConfig.
func decodeImageConfig(path string) (config image.Config, format string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return image.Config{}, "", err
	}
	defer file.Close()

	return image.DecodeConfig(file)
}
