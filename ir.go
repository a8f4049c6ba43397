package txt2voc

// The intermediate annotation metadata representation.

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Annotation is the intermediate representation of an object label.
type Annotation struct {
	ClassIndex int        // 1-based index into the category list.
	Coords     [4]float64 // Absolute xmin, ymin, xmax, ymax offsets from the top-left corner.
	Label      string

	// The coordinates exactly as written in the source file. Cleared when Coords are transformed.
	tokens [4]string
}

// Width is the object width from a.Coords.
func (a Annotation) Width() float64 {
	return a.Coords[2] - a.Coords[0]
}

// Height is the object height from a.Coords.
func (a Annotation) Height() float64 {
	return a.Coords[3] - a.Coords[1]
}

// CoordText returns the text of coordinate i (0: xmin, 1: ymin, 2: xmax, 3: ymax). Coordinates
// that were read from a file and not transformed since are returned verbatim, others are rounded
// to whole pixels.
func (a Annotation) CoordText(i int) string {
	if a.tokens[i] != "" {
		return a.tokens[i]
	}
	return strconv.Itoa(int(math.Round(a.Coords[i])))
}

// AnnotatedFile is the intermediate representation of file metadata.
type AnnotatedFile struct {
	Annotations []Annotation // The annotations.
	FilePath    string       // The annotated image.
	LabelPath   string       // The annotation file the data was read from.
	Width       int          // Image width in pixels.
	Height      int          // Image height in pixels.
}

// scaleCoords scales all Annotations.Coords by the given scale factors.
func (f *AnnotatedFile) scaleCoords(width, height float64) {
	for i := range f.Annotations {
		for j := 0; j < 4; j++ {
			if j&1 == 0 {
				f.Annotations[i].Coords[j] *= width
			} else {
				f.Annotations[i].Coords[j] *= height
			}
		}
		f.Annotations[i].tokens = [4]string{}
	}
}

// LabelMapping is an old=new label (sub-)string replacement.
type LabelMapping struct {
	Old, New string
}

// ParseLabelMappings parses mappings of the format old=new.
func ParseLabelMappings(mappings []string) ([]LabelMapping, error) {
	replacements := make([]LabelMapping, 0, len(mappings))
	for _, v := range mappings {
		a := strings.Split(v, "=")
		if len(a) != 2 {
			return nil, fmt.Errorf("invalid mapping: %v", v)
		}
		replacements = append(replacements, LabelMapping{Old: a[0], New: a[1]})
	}
	return replacements, nil
}

// MapLabels applies the replacements, in order, to all labels. It returns the number of labels
// that changed.
func (f *AnnotatedFile) MapLabels(replacements []LabelMapping) int {
	count := 0
	for i := range f.Annotations {
		a := &f.Annotations[i]

		oldLabel := a.Label
		for _, r := range replacements {
			a.Label = strings.Replace(a.Label, r.Old, r.New, -1)
		}

		if a.Label != oldLabel {
			count++
		}
	}
	return count
}

// FilterLabels removes the annotations whose label is not one of labelNames, keeping the order of
// the others. An empty labelNames keeps all annotations. It returns the number of removed
// annotations.
func (f *AnnotatedFile) FilterLabels(labelNames []string) int {
	if len(labelNames) == 0 {
		return 0
	}

	keep := make(map[string]struct{}, len(labelNames))
	for _, name := range labelNames {
		keep[name] = struct{}{}
	}

	kept := f.Annotations[:0]
	for _, a := range f.Annotations {
		if _, ok := keep[a.Label]; ok {
			kept = append(kept, a)
		}
	}
	removed := len(f.Annotations) - len(kept)
	f.Annotations = kept

	return removed
}

// AnnotatedFiles is the annotation metadata for a list of files.
type AnnotatedFiles []AnnotatedFile

// NumAnnotations returns the total number of annotations over all files.
func (data AnnotatedFiles) NumAnnotations() int {
	n := 0
	for _, f := range data {
		n += len(f.Annotations)
	}
	return n
}
