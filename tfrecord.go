package txt2voc

// TFRecord object detection specific functionality.

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/golang/protobuf/proto"
	"github.com/ryszard/tfutils/go/example"
	"github.com/ryszard/tfutils/go/tfrecord"
	"github.com/ryszard/tfutils/proto/tensorflow/core/example" // package tensorflow
)

// TFFeatureMap maps feature names to their values. Values must be convertible to
// tensorflow.Feature.
type TFFeatureMap map[string]interface{}

// toTFRecord converts the intermediate representation for a single file to the TFRecord feature
// map. Class ids are the 1-based category indices.
func toTFRecord(fileData AnnotatedFile) (TFFeatureMap, error) {
	_, format, err := decodeImageConfig(fileData.FilePath)
	if err != nil {
		return nil, &ImageReadError{Path: fileData.FilePath, Err: err}
	}
	imgData, err := os.ReadFile(fileData.FilePath)
	if err != nil {
		return nil, &ImageReadError{Path: fileData.FilePath, Err: err}
	}

	f := make(TFFeatureMap, 16)
	f["image/height"] = fileData.Height
	f["image/width"] = fileData.Width
	f["image/filename"] = fileData.FilePath
	f["image/source_id"] = fileData.FilePath
	f["image/encoded"] = imgData
	f["image/format"] = format

	// Bounding boxes are normalised to the image size.
	numLabels := len(fileData.Annotations)
	xmins := make([]float32, numLabels)
	ymins := make([]float32, numLabels)
	xmaxs := make([]float32, numLabels)
	ymaxs := make([]float32, numLabels)
	classes := make([]string, numLabels)
	classIDs := make([]int64, numLabels)
	width, height := float32(fileData.Width), float32(fileData.Height)
	for i, a := range fileData.Annotations {
		xmins[i] = float32(a.Coords[0]) / width
		ymins[i] = float32(a.Coords[1]) / height
		xmaxs[i] = float32(a.Coords[2]) / width
		ymaxs[i] = float32(a.Coords[3]) / height
		classes[i] = a.Label
		classIDs[i] = int64(a.ClassIndex)
	}
	f["image/object/bbox/xmin"] = xmins
	f["image/object/bbox/ymin"] = ymins
	f["image/object/bbox/xmax"] = xmaxs
	f["image/object/bbox/ymax"] = ymaxs
	f["image/object/class/text"] = classes
	f["image/object/class/label"] = classIDs

	return f, nil
}

// WriteTFRecord serialises the annotation data to one or more TFRecord files stored under
// recordFilePath (with "-xxxxx-of-yyyyy" suffixes added when numShards > 1).
//
// A label map for categories is written to labelMapPath unless it is empty.
func WriteTFRecord(recordFilePath, labelMapPath string, data AnnotatedFiles,
	categories Categories, numShards int) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("conversion to TensorFlow Example failed: %v", e)
		}
	}()

	if numShards <= 0 {
		numShards = 1
	}
	shardSize := int(math.Ceil(float64(len(data)) / float64(numShards)))

	for shardIdx := 0; shardIdx < numShards; shardIdx++ {
		start := min(shardIdx*shardSize, len(data))
		end := min(start+shardSize, len(data))

		shardPath := recordFilePath
		if numShards > 1 {
			shardPath += fmt.Sprintf("-%05d-of-%05d", shardIdx, numShards)
		}
		if err := writeTFRecordShard(shardPath, data[start:end]); err != nil {
			return err
		}
	}

	if labelMapPath == "" {
		return nil
	}
	return saveTFRecordLabelMap(labelMapPath, categories)
}

// writeTFRecordShard converts and writes one example per file to a new file at path.
func writeTFRecordShard(path string, data AnnotatedFiles) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create shard at %q: %w", path, err)
	}
	defer closeWithErrCheck(file, &err)

	w := bufio.NewWriter(file)
	for _, fileData := range data {
		features, err := toTFRecord(fileData)
		if err != nil {
			return fmt.Errorf("failed to convert %q: %w", fileData.FilePath, err)
		}
		if err := writeTFRecordExample(w, example.New(features)); err != nil {
			return fmt.Errorf("failed to write example for %q: %w", fileData.FilePath, err)
		}
	}

	return w.Flush()
}

// writeTFRecordExample serialises the example and writes it as a TFRecord to w.
func writeTFRecordExample(w io.Writer, e *tensorflow.Example) error {
	enc, err := proto.Marshal(e)
	if err != nil {
		return err
	}

	return tfrecord.Write(w, enc)
}

// saveTFRecordLabelMap writes the categories in StringIntLabelMap prototxt format to path. The
// id of each item is its 1-based position in the list.
func saveTFRecordLabelMap(path string, categories Categories) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create the label map file %q: %w", path, err)
	}
	defer closeWithErrCheck(file, &err)

	w := bufio.NewWriter(file)
	for i, name := range categories {
		if _, err := fmt.Fprintf(w, "item {\n  id: %d\n  name: %q\n}\n", i+1, name); err != nil {
			return fmt.Errorf("failed to write the label map %q: %w", path, err)
		}
	}

	return w.Flush()
}
