package txt2voc

import (
	"errors"
	"fmt"
)

// ErrUserAbort is returned when the output directory already exists and overwriting it was not
// confirmed.
var ErrUserAbort = errors.New("the output directory already exists and overwriting was declined")

// ConfigurationError reports a required input path that does not exist, or an invalid option.
type ConfigurationError struct {
	What string // What was expected, e.g. "images of the dataset", or the invalid option.
	Path string // The missing path. Empty for invalid options.
	Err  error  // The underlying error, if any.
}

func (e *ConfigurationError) Error() string {
	var msg string
	if e.Path != "" {
		msg = fmt.Sprintf("can't find the %s %q", e.What, e.Path)
	} else {
		msg = "invalid " + e.What
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ImageReadError reports an image that is missing or cannot be decoded.
type ImageReadError struct {
	Path string
	Err  error
}

func (e *ImageReadError) Error() string {
	return fmt.Sprintf("cannot read image %q: %v", e.Path, e.Err)
}

func (e *ImageReadError) Unwrap() error {
	return e.Err
}

// MalformedAnnotationError reports an annotation line that does not match
// "<class_index> <xmin> <ymin> <xmax> <ymax>", or that references an unknown category.
type MalformedAnnotationError struct {
	Path   string // The annotation file.
	Line   int    // 1-based line number.
	Reason string
}

func (e *MalformedAnnotationError) Error() string {
	return fmt.Sprintf("%s:%d: malformed annotation: %s", e.Path, e.Line, e.Reason)
}
