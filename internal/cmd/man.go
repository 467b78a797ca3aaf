package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const manPage = `
NAME

    multiphase - run one executable in several phases over the same input

SYNOPSIS

    multiphase                                                  \
        [-e|--exec <appToRun>]                                  \
        [-s|--specificArgs <pipeSeparatedSpecificArgs>]         \
        [-c|--commonArgs <commonArgs>]                          \
        [--noJobLogging]                                        \
        [-v|--verbosity <level>]                                \
        [--timeout <duration>]                                  \
        [--strict]                                              \
        [--config <file>]                                       \
        [--log-level <level>]                                   \
        [--version]                                             \
        <inputDir>                                              \
        <outputDir>

BRIEF EXAMPLE

    multiphase                                                  \
        --exec pfdo_mgz2image                                   \
        --commonArgs "--filterExpression mgz --verbose 1"       \
        --specificArgs "--lookupTable __val__|--lookupTable __fs__" \
        /incoming /outgoing

DESCRIPTION

    multiphase runs a specific <appToRun> several times over the same
    <inputDir>. Each run, or phase, differs only in the entry of
    <pipeSeparatedSpecificArgs> passed to the app. The <commonArgs> are
    passed in every phase. Each phase is launched as

        <appToRun> -I <inputDir> -O <outputDir> <commonArgs> <specificArg>

    Phases run strictly one after another. For phase N, the app's
    standard output, standard error and exit code are written to

        <outputDir>/<appToRun>-N-stdout
        <outputDir>/<appToRun>-N-stderr
        <outputDir>/<appToRun>-N-returncode

    A phase that exits non-zero does not stop the run. A phase whose app
    cannot be started is reported and the run continues with the next
    phase. A result that cannot be written stops the run.

ARGS

    [-e|--exec <appToRun>]
    The app to run in each phase. Only registered apps are accepted; see
    "multiphase execs". More apps can be declared in the config file.

    [-s|--specificArgs <pipeSeparatedSpecificArgs>]
    The per-phase arguments, separated by the pipe "|" character. An empty
    string runs a single phase with no specific arguments.

    [-c|--commonArgs <commonArgs>]
    Arguments passed to the app in every phase.

    [--noJobLogging]
    Do not write the per-phase stdout, stderr and returncode files.

    [-v|--verbosity <level>]
    When above zero, print the banner and progress, echo the app's standard
    output as it runs and its standard error once it exits.

    [--timeout <duration>]
    Kill a phase that runs longer than <duration>, e.g. 30m. Whatever the
    phase printed before it was killed is still recorded.

    [--strict]
    Exit non-zero when any phase exits non-zero. Without it, only phases
    that could not be started, timed out or were interrupted fail the run.

    [--config <file>]
    Read settings from <file> instead of the default search path.

    [--log-level <level>]
    Diagnostic log level: debug, info, warn or error.

    [--version]
    Print the version and exit.
`

var manCmd = &cobra.Command{
	Use:   "man",
	Short: "Print the manual page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprint(cmd.OutOrStdout(), manPage)
		return err
	},
}

func init() {
	rootCmd.AddCommand(manCmd)
}
