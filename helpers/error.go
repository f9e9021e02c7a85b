package helpers

import (
	"strings"

	"github.com/juju/errors"
)

// FoldErrors squashes nil items; a single survivor keeps its juju trace.
func FoldErrors(errs []error) error {
	folded := errs[:0]
	for _, e := range errs {
		if e != nil {
			folded = append(folded, e)
		}
	}
	switch len(folded) {
	case 0:
		return nil
	case 1:
		return folded[0]
	}
	ss := make([]string, 0, len(folded))
	for _, e := range folded {
		ss = append(ss, e.Error())
	}
	return errors.New(strings.Join(ss, "\n"))
}
