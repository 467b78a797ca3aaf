// Package phase turns a pipe-delimited list of per-phase arguments into the
// ordered sequence of commands that a multiphase run executes.
//
// Each supported executable is described by a [Strategy] held in a
// [Registry]. Planning against an identifier that has no registered strategy
// fails with errors.ErrUnsupportedExecutable before anything is launched.
package phase

import (
	"fmt"
	"strings"
)

// Separator splits the specific-arguments string into phases.
const Separator = "|"

// Phase is one entry of the specific-arguments list.
type Phase struct {
	// Index is the 0-based position in the split list.
	Index int
	// Args is the phase-specific argument fragment; it may be empty.
	Args string
}

// Split divides specificArgs on Separator. An empty string yields exactly one
// phase with an empty fragment, so a run always executes at least once.
func Split(specificArgs string) []Phase {
	parts := strings.Split(specificArgs, Separator)
	phases := make([]Phase, len(parts))
	for i, p := range parts {
		phases[i] = Phase{Index: i, Args: p}
	}
	return phases
}

// Spec holds the inputs the planner combines into commands.
type Spec struct {
	Exec         string // Executable identifier, looked up in the registry
	InputDir     string
	OutputDir    string
	CommonArgs   string // Fragment shared by every phase
	SpecificArgs string // Pipe-delimited per-phase fragments
}

// Command is a fully assembled invocation for one phase.
type Command struct {
	Phase Phase
	// Exec is the identifier the command was planned for. It names the
	// phase's result files.
	Exec string
	// Path is the program to launch.
	Path string
	// Args are the arguments passed to Path.
	Args []string
}

// Argv returns Path followed by Args.
func (c Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, c.Path)
	return append(argv, c.Args...)
}

// String renders the command as a single space-separated line for display.
func (c Command) String() string {
	return strings.Join(c.Argv(), " ")
}

// Prefix returns the file-name prefix for this phase's results,
// "{exec}-{index}-".
func (c Command) Prefix() string {
	return fmt.Sprintf("%s-%d-", c.Exec, c.Phase.Index)
}

// fields tokenizes an argument fragment on whitespace. Quoting is not
// interpreted.
func fields(fragment string) []string {
	return strings.Fields(fragment)
}
