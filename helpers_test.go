package txt2voc

import (
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

// testDataset describes a dataset created by writeDataset.
type testDataset struct {
	categories  []string
	annotations map[string]string // Annotation file name to content.
	images      map[string][2]int // Image file name to width, height.
}

// writeDataset creates the dataset layout in a temporary directory and returns its root.
func writeDataset(t *testing.T, d testDataset) string {
	t.Helper()

	root := filepath.Join(t.TempDir(), "Foodinc")
	for _, dir := range []string{ImagesDirName, AnnotationsDirName, InfosDirName} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			t.Fatal(err)
		}
	}

	categories := strings.Join(d.categories, "\n") + "\n"
	writeFile(t, filepath.Join(root, InfosDirName, CategoriesFileName), categories)
	for name, content := range d.annotations {
		writeFile(t, filepath.Join(root, AnnotationsDirName, name), content)
	}
	for name, size := range d.images {
		writePNG(t, filepath.Join(root, ImagesDirName, name), size[0], size[1])
	}

	return root
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatal(err)
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
