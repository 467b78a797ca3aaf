package runner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iron-Ham/multiphase/internal/errors"
	"github.com/Iron-Ham/multiphase/internal/phase"
)

const helperEnv = "MULTIPHASE_WANT_HELPER_PROCESS"

// helperCommand builds a command that re-executes the test binary as a fake
// child process running the given mode.
func helperCommand(t *testing.T, index int, mode ...string) phase.Command {
	t.Helper()
	t.Setenv(helperEnv, "1")

	args := append([]string{"-test.run=TestHelperProcess", "--"}, mode...)
	return phase.Command{
		Phase: phase.Phase{Index: index},
		Exec:  "helper",
		Path:  os.Args[0],
		Args:  args,
	}
}

// TestHelperProcess is not a real test. It is the body of the fake child
// launched by helperCommand.
func TestHelperProcess(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		return
	}
	defer os.Exit(0)

	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "no mode")
		os.Exit(2)
	}

	switch mode, rest := args[1], args[2:]; mode {
	case "lines":
		for _, l := range rest {
			fmt.Println(l)
		}
	case "partial":
		fmt.Print("first\nno newline")
	case "mixed":
		fmt.Println("to stdout")
		fmt.Fprintln(os.Stderr, "to stderr")
		os.Exit(3)
	case "exit":
		code, _ := strconv.Atoi(rest[0])
		os.Exit(code)
	case "flood":
		// More than a pipe buffer of stderr before any stdout.
		chunk := strings.Repeat("e", 1024) + "\n"
		for i := 0; i < 512; i++ {
			fmt.Fprint(os.Stderr, chunk)
		}
		fmt.Println("done")
	case "sleep":
		d := 30 * time.Second
		if len(rest) > 0 {
			d, _ = time.ParseDuration(rest[0])
		}
		fmt.Println("started")
		time.Sleep(d)
	case "detach":
		// Leave a grandchild outside our process group holding stdout.
		gc := exec.Command(os.Args[0], "-test.run=TestHelperProcess", "--", "sleep", "10s")
		gc.Stdout = os.Stdout
		gc.Stderr = os.Stderr
		gc.SysProcAttr = detachedProcAttr()
		if err := gc.Start(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		fmt.Println("started")
		time.Sleep(30 * time.Second)
	case "pwd":
		wd, _ := os.Getwd()
		fmt.Println(wd)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", mode)
		os.Exit(2)
	}
}

func TestExecute_CapturesStdout(t *testing.T) {
	r := New(Config{}, nil, nil)

	result, err := r.Execute(context.Background(), helperCommand(t, 0, "lines", "alpha", "beta"))
	require.NoError(t, err)
	assert.Equal(t, "alpha\nbeta\n", result.Stdout)
	assert.Empty(t, result.Stderr)
	assert.Equal(t, 0, result.ExitCode)
	assert.True(t, result.Succeeded())
	assert.False(t, result.StartedAt.IsZero())
}

func TestExecute_KeepsFinalPartialLine(t *testing.T) {
	r := New(Config{}, nil, nil)

	result, err := r.Execute(context.Background(), helperCommand(t, 0, "partial"))
	require.NoError(t, err)
	assert.Equal(t, "first\nno newline", result.Stdout)
}

func TestExecute_NonZeroExitIsNotAnError(t *testing.T) {
	r := New(Config{}, nil, nil)

	result, err := r.Execute(context.Background(), helperCommand(t, 1, "mixed"))
	require.NoError(t, err)
	assert.Equal(t, 3, result.ExitCode)
	assert.False(t, result.Succeeded())
	assert.Equal(t, "to stdout\n", result.Stdout)
	assert.Equal(t, "to stderr\n", result.Stderr)
}

func TestExecute_ExitCodes(t *testing.T) {
	for _, code := range []int{0, 1, 2, 42} {
		t.Run(strconv.Itoa(code), func(t *testing.T) {
			r := New(Config{}, nil, nil)
			result, err := r.Execute(context.Background(), helperCommand(t, 0, "exit", strconv.Itoa(code)))
			require.NoError(t, err)
			assert.Equal(t, code, result.ExitCode)
		})
	}
}

func TestExecute_EchoWhenVerbose(t *testing.T) {
	var echo bytes.Buffer
	r := New(Config{Verbosity: 1}, &echo, nil)

	_, err := r.Execute(context.Background(), helperCommand(t, 0, "mixed"))
	require.NoError(t, err)
	assert.Equal(t, "to stdout\n\nstderr: \nto stderr\n\n", echo.String())
}

func TestExecute_QuietByDefault(t *testing.T) {
	var echo bytes.Buffer
	r := New(Config{}, &echo, nil)

	_, err := r.Execute(context.Background(), helperCommand(t, 0, "mixed"))
	require.NoError(t, err)
	assert.Empty(t, echo.String())
}

func TestExecute_LargeStderrDoesNotBlock(t *testing.T) {
	r := New(Config{Timeout: 20 * time.Second}, nil, nil)

	result, err := r.Execute(context.Background(), helperCommand(t, 0, "flood"))
	require.NoError(t, err)
	assert.Equal(t, "done\n", result.Stdout)
	assert.Equal(t, 512*1025, len(result.Stderr))
}

func TestExecute_LaunchFailure(t *testing.T) {
	r := New(Config{}, nil, nil)
	cmd := phase.Command{
		Exec: "missing",
		Path: filepath.Join(t.TempDir(), "does-not-exist"),
		Args: []string{"-I", "in", "-O", "out"},
	}

	result, err := r.Execute(context.Background(), cmd)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.IsLaunchFailure(err))

	var launchErr *errors.LaunchError
	require.True(t, errors.As(err, &launchErr))
	assert.Equal(t, "missing", launchErr.Executable)
}

func TestExecute_BadWorkingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gone")
	r := New(Config{Dir: dir}, nil, nil)

	_, err := r.Execute(context.Background(), helperCommand(t, 0, "lines", "x"))
	require.Error(t, err)

	var launchErr *errors.LaunchError
	require.True(t, errors.As(err, &launchErr))
	assert.Equal(t, dir, launchErr.Dir)
}

func TestExecute_WorkingDirectory(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	r := New(Config{Dir: dir}, nil, nil)

	result, err := r.Execute(context.Background(), helperCommand(t, 0, "pwd"))
	require.NoError(t, err)
	assert.Equal(t, dir, strings.TrimSpace(result.Stdout))
}

func TestExecute_Timeout(t *testing.T) {
	r := New(Config{Timeout: time.Second}, nil, nil)

	start := time.Now()
	result, err := r.Execute(context.Background(), helperCommand(t, 2, "sleep"))
	require.Error(t, err)
	assert.Less(t, time.Since(start), 20*time.Second)

	assert.True(t, errors.Is(err, errors.ErrTimeout))
	var timeoutErr *errors.TimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.Equal(t, "phase 2", timeoutErr.Operation)

	require.NotNil(t, result, "partial result should be returned on timeout")
	assert.Equal(t, "started\n", result.Stdout)
	assert.NotEqual(t, 0, result.ExitCode)
}

func TestExecute_ContextCancelled(t *testing.T) {
	r := New(Config{}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(time.Second, cancel)

	result, err := r.Execute(ctx, helperCommand(t, 0, "sleep"))
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.NotEqual(t, 0, result.ExitCode)
}

func TestNew_Defaults(t *testing.T) {
	r := New(Config{Verbosity: 2}, nil, nil)
	assert.NotNil(t, r.echo)
	assert.NotNil(t, r.logger)
	assert.Equal(t, 2, r.config.Verbosity)
	assert.Equal(t, DefaultWaitDelay, r.config.WaitDelay)
}

func TestExecute_TimeoutReleasesPipeHeldByGrandchild(t *testing.T) {
	r := New(Config{Timeout: 300 * time.Millisecond, WaitDelay: 500 * time.Millisecond}, nil, nil)

	start := time.Now()
	result, err := r.Execute(context.Background(), helperCommand(t, 0, "detach"))
	elapsed := time.Since(start)

	require.ErrorIs(t, err, errors.ErrTimeout)
	require.NotNil(t, result)
	assert.Contains(t, result.Stdout, "started")
	assert.Less(t, elapsed, 5*time.Second, "a grandchild holding stdout must not outlive the wait delay")
}
