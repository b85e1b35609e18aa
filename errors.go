package tracering

import (
	"fmt"
)

var (
	ErrNoFifo             = addPrefix("no backing fifo")
	ErrUnsupportedEntry   = addPrefix("entry type unsupported at merge boundary")
	ErrUnterminatedRecord = addPrefix("format record missing its end frame")
)

func addPrefix(errStr string) error {
	return fmt.Errorf("tracering err: %s", errStr)
}
