package txt2voc

// Pascal VOC specific functionality.

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

// vocDepth is the number of colour channels reported for every image.
const vocDepth = 3

// VOCBndBox is the bounding box of a VOC object. The values are kept as text so that they can be
// written exactly as they were read.
type VOCBndBox struct {
	XMin string `xml:"xmin"`
	YMin string `xml:"ymin"`
	XMax string `xml:"xmax"`
	YMax string `xml:"ymax"`
}

// VOCObject is a single annotation within a VOC file.
type VOCObject struct {
	Name   string    `xml:"name"`
	BndBox VOCBndBox `xml:"bndbox"`
}

// VOCSize is the image size.
type VOCSize struct {
	Width  int `xml:"width"`
	Height int `xml:"height"`
	Depth  int `xml:"depth"`
}

// VOCAnnotation defines the VOC annotation structure for a single file.
type VOCAnnotation struct {
	XMLName  xml.Name `xml:"annotation"`
	Folder   string   `xml:"folder"`
	Filename string   `xml:"filename"`
	Source   struct {
		Database string `xml:"database"`
	} `xml:"source"`
	Owner struct {
		Company string `xml:"company"`
	} `xml:"owner"`
	Size    VOCSize     `xml:"size"`
	Objects []VOCObject `xml:"object"`
}

// VOCHeader holds the values that are the same for every file of a dataset.
type VOCHeader struct {
	Folder   string // The dataset folder name.
	Database string // source/database
	Owner    string // owner/company
}

// ToVOC converts the intermediate representation for a single file to VOC format.
func ToVOC(fileData AnnotatedFile, header VOCHeader) VOCAnnotation {
	v := VOCAnnotation{
		Folder:   header.Folder,
		Filename: filepath.Base(fileData.FilePath),
		Size: VOCSize{
			Width:  fileData.Width,
			Height: fileData.Height,
			Depth:  vocDepth,
		},
		Objects: make([]VOCObject, len(fileData.Annotations)),
	}
	v.Source.Database = header.Database
	v.Owner.Company = header.Owner

	for i, a := range fileData.Annotations {
		v.Objects[i] = VOCObject{
			Name: a.Label,
			BndBox: VOCBndBox{
				XMin: a.CoordText(0),
				YMin: a.CoordText(1),
				XMax: a.CoordText(2),
				YMax: a.CoordText(3),
			},
		}
	}

	return v
}

// WriteVOC writes the VOC annotation to outFile, replacing any existing file. The document has no
// XML declaration.
func WriteVOC(outFile string, data VOCAnnotation) error {
	enc, err := xml.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	enc = append(enc, '\n')
	if err := os.WriteFile(outFile, enc, 0644); err != nil {
		return fmt.Errorf("cannot write file %q: %w", outFile, err)
	}
	return nil
}

// ReadVOC reads and parses the VOC annotation at path.
func ReadVOC(path string) (VOCAnnotation, error) {
	enc, err := os.ReadFile(path)
	if err != nil {
		return VOCAnnotation{}, err
	}

	var v VOCAnnotation
	if err := xml.Unmarshal(enc, &v); err != nil {
		return VOCAnnotation{}, fmt.Errorf("failed to parse VOC input from %q: %w", path, err)
	}
	return v, nil
}
