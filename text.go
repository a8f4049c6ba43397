package txt2voc

// Plain-text annotation format: one object per line, "<class_index> <xmin> <ymin> <xmax> <ymax>".

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// textAnnotationTokens is the number of tokens on a plain-text annotation line.
const textAnnotationTokens = 5

// TextAnnotation is a single annotation within a plain-text file.
type TextAnnotation struct {
	ClassIndex int       // 1-based category index.
	Coords     [4]string // xmin, ymin, xmax, ymax, as written.
}

// parseTextAnnotation parses the line of values for a single annotation. The coordinates must be
// integers but are kept as written.
func parseTextAnnotation(line string) (TextAnnotation, error) {
	a := TextAnnotation{}

	tokens := strings.Fields(line)
	if len(tokens) != textAnnotationTokens {
		return a, fmt.Errorf("expected %d tokens, found %d in %q",
			textAnnotationTokens, len(tokens), line)
	}

	var err error
	if a.ClassIndex, err = strconv.Atoi(tokens[0]); err != nil {
		return a, fmt.Errorf("invalid class index %q", tokens[0])
	}
	for i := 1; i < textAnnotationTokens; i++ {
		if _, err := strconv.Atoi(tokens[i]); err != nil {
			return a, fmt.Errorf("invalid coordinate %q", tokens[i])
		}
		a.Coords[i-1] = tokens[i]
	}

	return a, nil
}

// textBaseName returns the annotation file name without its extension. This is the base name
// shared with the image and the XML output.
func textBaseName(labelPath string) string {
	name := filepath.Base(labelPath)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// ParseTextFile reads the image dimensions from imagePath, then parses the annotations in the file
// at labelPath, naming each object after its entry in categories.
//
// A missing or undecodable image yields an *ImageReadError. Lines with the wrong number of tokens,
// non-integer tokens, or a class index outside of categories yield a *MalformedAnnotationError.
// Blank lines are ignored.
func ParseTextFile(labelPath, imagePath string, categories Categories) (AnnotatedFile, error) {
	// Get the image width and height.
	img, _, err := decodeImageConfig(imagePath)
	if err != nil {
		return AnnotatedFile{}, &ImageReadError{Path: imagePath, Err: err}
	}

	lines, err := readLines(labelPath)
	if err != nil {
		return AnnotatedFile{}, err
	}

	fileData := AnnotatedFile{
		Annotations: make([]Annotation, 0, len(lines)),
		FilePath:    imagePath,
		LabelPath:   labelPath,
		Width:       img.Width,
		Height:      img.Height,
	}
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		ta, err := parseTextAnnotation(line)
		if err != nil {
			return AnnotatedFile{}, &MalformedAnnotationError{Path: labelPath, Line: i + 1,
				Reason: err.Error()}
		}
		label, err := categories.Name(ta.ClassIndex)
		if err != nil {
			return AnnotatedFile{}, &MalformedAnnotationError{Path: labelPath, Line: i + 1,
				Reason: err.Error()}
		}

		annotation := Annotation{ClassIndex: ta.ClassIndex, Label: label, tokens: ta.Coords}
		for j, v := range ta.Coords {
			// Validated by parseTextAnnotation.
			n, _ := strconv.Atoi(v)
			annotation.Coords[j] = float64(n)
		}
		fileData.Annotations = append(fileData.Annotations, annotation)
	}

	return fileData, nil
}
