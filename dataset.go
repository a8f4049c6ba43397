package txt2voc

import (
	"os"
	"path/filepath"
)

// Names in the dataset directory layout.
const (
	ImagesDirName      = "Images"
	AnnotationsDirName = "Annotations"
	InfosDirName       = "infos"
	CategoriesFileName = "categories.txt"

	DefaultOutputDir = "Annotations_XML"
	DefaultImageExt  = ".png"
)

// Dataset is the directory layout of a dataset with plain-text annotations:
//
//	<root>/Images/<name>.png
//	<root>/Annotations/<name>.txt
//	<root>/infos/categories.txt
type Dataset struct {
	Root           string
	ImagesDir      string
	AnnotationsDir string
	CategoriesFile string
}

// OpenDataset checks that the dataset root and its images, annotations and categories exist. The
// first missing path is reported as a *ConfigurationError.
func OpenDataset(root string) (*Dataset, error) {
	root = filepath.Clean(root)
	d := &Dataset{
		Root:           root,
		ImagesDir:      filepath.Join(root, ImagesDirName),
		AnnotationsDir: filepath.Join(root, AnnotationsDirName),
		CategoriesFile: filepath.Join(root, InfosDirName, CategoriesFileName),
	}

	checks := []struct {
		what  string
		path  string
		isDir bool
	}{
		{"dataset", d.Root, true},
		{"images of the dataset", d.ImagesDir, true},
		{"annotations of the dataset", d.AnnotationsDir, true},
		{"categories of the dataset", d.CategoriesFile, false},
	}
	for _, c := range checks {
		info, err := os.Stat(c.path)
		if err != nil {
			return nil, &ConfigurationError{What: c.what, Path: c.path, Err: err}
		}
		if info.IsDir() != c.isDir {
			return nil, &ConfigurationError{What: c.what, Path: c.path}
		}
	}

	return d, nil
}

// Folder returns the name of the dataset root directory.
func (d *Dataset) Folder() string {
	if abs, err := filepath.Abs(d.Root); err == nil {
		return filepath.Base(abs)
	}
	return filepath.Base(d.Root)
}

// OutputDir returns the path of the named output directory within the dataset.
func (d *Dataset) OutputDir(name string) string {
	return filepath.Join(d.Root, name)
}

// ImagePath returns the path of the image with the given base name and extension.
func (d *Dataset) ImagePath(baseName, ext string) string {
	return filepath.Join(d.ImagesDir, baseName+ext)
}
