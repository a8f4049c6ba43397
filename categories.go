package txt2voc

// Category list handling.

import "fmt"

// Categories is the ordered list of category names. Class index N (1-based) refers to the N-th
// name.
type Categories []string

// LoadCategories reads the category names from the file at path, one name per line, in file
// order.
func LoadCategories(path string) (Categories, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	return Categories(lines), nil
}

// Name returns the category name for the 1-based class index.
func (c Categories) Name(classIndex int) (string, error) {
	if classIndex < 1 || classIndex > len(c) {
		return "", fmt.Errorf("category index %d out of range [1, %d]", classIndex, len(c))
	}
	return c[classIndex-1], nil
}
