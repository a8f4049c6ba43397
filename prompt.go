package txt2voc

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ConfirmOverwrite asks on w whether to continue writing into the existing directory name and
// reads the answer from r. Only "y" or "yes", in any case, confirm. End of input declines.
func ConfirmOverwrite(r io.Reader, w io.Writer, name string) (bool, error) {
	_, err := fmt.Fprintf(w, "The directory %s already exists. "+
		"Do you want to pursue (may affects the existing content)? [y/N] ", name)
	if err != nil {
		return false, err
	}

	answer, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
