// Package launch assembles the harness command line and runs the harness.
package launch

import (
	"path/filepath"
	"strconv"
	"strings"

	"funstart/internal/flags"
)

// HarnessScript is the harness entry point inside the harness directory.
const HarnessScript = "multi_timed_run.py"

// Command is the harness invocation as a structured argument list.
type Command struct {
	Program     string
	Script      string
	Harness     []string
	Timeout     int
	KnownIssues string
	Binary      string
	Shell       []string
}

// NewCommand builds the harness command. knownIssues gets a trailing
// separator because the harness appends file names to it.
func NewCommand(harnessDir string, set flags.Set, knownIssues, binary string) Command {
	if !strings.HasSuffix(knownIssues, string(filepath.Separator)) {
		knownIssues += string(filepath.Separator)
	}
	return Command{
		Program:     "python",
		Script:      filepath.Join(harnessDir, HarnessScript),
		Harness:     append([]string(nil), set.Harness...),
		Timeout:     set.Timeout,
		KnownIssues: knownIssues,
		Binary:      binary,
		Shell:       append([]string(nil), set.Shell...),
	}
}

// Args returns the arguments after Program:
// -u <script> <harness flags> <timeout> <known issues> <binary> <shell flags>.
func (c Command) Args() []string {
	args := make([]string, 0, 5+len(c.Harness)+len(c.Shell))
	args = append(args, "-u", c.Script)
	args = append(args, c.Harness...)
	args = append(args, strconv.Itoa(c.Timeout), c.KnownIssues, c.Binary)
	args = append(args, c.Shell...)
	return args
}

// String renders the command for display. Arguments are joined with single
// spaces and not quoted.
func (c Command) String() string {
	return c.Program + " " + strings.Join(c.Args(), " ")
}
