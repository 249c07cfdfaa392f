package testutil

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Importing testutil routes logrus to io.Discard unless the test binary runs
// with -v. Bank and program diagnostics are logged at trace level, so
// verbose runs show all of them.
func init() {
	logrus.SetLevel(logrus.TraceLevel)
	if !isVerbose(os.Args[1:]) {
		logrus.SetOutput(io.Discard)
	}
}

func isVerbose(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "-test.v", "-test.v=true", "-test.v=test2json":
			return true
		}
	}
	return false
}
