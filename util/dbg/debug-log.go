//go:build debug
// +build debug

package dbg

import (
	"fmt"
	"log"
	"os"

	"github.com/davecgh/go-spew/spew"
)

type debugLoggerImpl struct {
	logger *log.Logger
	dumper *spew.ConfigState
}

func init() {
	enabled = true
	debugLog = &debugLoggerImpl{
		logger: log.New(os.Stderr, "", log.Lshortfile),
		dumper: &spew.ConfigState{
			Indent:                  "  ",
			DisableMethods:          false,
			DisablePointerAddresses: true,
			DisableCapacities:       true,
			SortKeys:                true,
		},
	}
}

// calldepth 3 points the file:line prefix at the caller of dbg.Printf.
func (d *debugLoggerImpl) Printf(format string, a ...interface{}) {
	d.logger.Output(3, fmt.Sprintf(format, a...))
}

func (d *debugLoggerImpl) Println(a ...interface{}) {
	d.logger.Output(3, fmt.Sprintln(a...))
}

func (d *debugLoggerImpl) Dump(a ...interface{}) {
	d.logger.Output(3, d.dumper.Sdump(a...))
}
