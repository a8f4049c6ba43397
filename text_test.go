package txt2voc

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestParseTextAnnotation(t *testing.T) {
	tests := []struct {
		line    string
		want    TextAnnotation
		wantErr bool
	}{
		{line: "1 10 10 50 50", want: TextAnnotation{1, [4]string{"10", "10", "50", "50"}}},
		{line: "\t2  5 5\t20 20 ", want: TextAnnotation{2, [4]string{"5", "5", "20", "20"}}},
		{line: "7 -1 +2 003 4", want: TextAnnotation{7, [4]string{"-1", "+2", "003", "4"}}},
		{line: "1 10 10 50", wantErr: true},
		{line: "1 10 10 50 50 0.9", wantErr: true},
		{line: "apple 10 10 50 50", wantErr: true},
		{line: "1 10.5 10 50 50", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseTextAnnotation(tt.line)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseTextAnnotation(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseTextAnnotation(%q) = %+v, want %+v", tt.line, got, tt.want)
		}
	}
}

func TestTextBaseName(t *testing.T) {
	tests := map[string]string{
		"/data/Annotations/foo.txt":     "foo",
		"/data/Annotations/foo.bar.txt": "foo.bar",
		"/data/Annotations/foo":         "foo",
	}
	for path, want := range tests {
		if got := textBaseName(path); got != want {
			t.Errorf("textBaseName(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestParseTextFileCategoryOutOfRange(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "a.png")
	writePNG(t, imagePath, 2, 2)

	for _, line := range []string{"0 1 1 2 2", "-1 1 1 2 2", "3 1 1 2 2"} {
		labelPath := filepath.Join(dir, "a.txt")
		writeFile(t, labelPath, "1 1 1 2 2\n"+line+"\n")

		_, err := ParseTextFile(labelPath, imagePath, Categories{"apple", "banana"})

		var malformed *MalformedAnnotationError
		if !errors.As(err, &malformed) {
			t.Errorf("%q: got error %v, want a MalformedAnnotationError", line, err)
			continue
		}
		if malformed.Line != 2 {
			t.Errorf("%q: got line %d, want 2", line, malformed.Line)
		}
	}
}

func TestParseTextFileUndecodableImage(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "a.png")
	labelPath := filepath.Join(dir, "a.txt")
	writeFile(t, imagePath, "not a png")
	writeFile(t, labelPath, "1 1 1 2 2\n")

	_, err := ParseTextFile(labelPath, imagePath, Categories{"apple"})

	var imgErr *ImageReadError
	if !errors.As(err, &imgErr) {
		t.Fatalf("Got error %v, want an ImageReadError", err)
	}
}
