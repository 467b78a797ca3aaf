// Package joblog persists the captured result of each phase to the output
// directory as three plain-text files:
//
//	{prefix}stdout
//	{prefix}stderr
//	{prefix}returncode
//
// where prefix is "{exec}-{index}-". Existing files are overwritten, so
// persisting the same result twice leaves the same contents behind.
package joblog

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/Iron-Ham/multiphase/internal/errors"
	"github.com/Iron-Ham/multiphase/internal/runner"
)

// File name suffixes appended to the phase prefix.
const (
	SuffixStdout     = "stdout"
	SuffixStderr     = "stderr"
	SuffixReturnCode = "returncode"
)

// DefaultFileMode is used for result files when no mode is configured.
const DefaultFileMode os.FileMode = 0644

// Store writes job results into a single output directory.
type Store struct {
	fs      afero.Fs
	dir     string
	enabled bool
	mode    os.FileMode
}

// Option configures a Store.
type Option func(*Store)

// WithFs sets the filesystem the store writes to. The default is the OS
// filesystem.
func WithFs(fs afero.Fs) Option {
	return func(s *Store) {
		s.fs = fs
	}
}

// WithFileMode sets the permission bits of newly created result files.
func WithFileMode(mode os.FileMode) Option {
	return func(s *Store) {
		if mode != 0 {
			s.mode = mode
		}
	}
}

// Disabled turns Persist into a no-op.
func Disabled() Option {
	return func(s *Store) {
		s.enabled = false
	}
}

// NewStore creates a Store writing into dir.
func NewStore(dir string, opts ...Option) *Store {
	s := &Store{
		fs:      afero.NewOsFs(),
		dir:     dir,
		enabled: true,
		mode:    DefaultFileMode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Paths returns the three result file paths for prefix, in the order
// stdout, stderr, returncode.
func (s *Store) Paths(prefix string) []string {
	return []string{
		filepath.Join(s.dir, prefix+SuffixStdout),
		filepath.Join(s.dir, prefix+SuffixStderr),
		filepath.Join(s.dir, prefix+SuffixReturnCode),
	}
}

// Persist writes result under prefix. When the store is disabled it returns
// nil without touching the filesystem. The first failed write is returned as
// a *errors.PersistError; files written before it are left in place.
func (s *Store) Persist(result *runner.JobResult, prefix string) error {
	if !s.enabled {
		return nil
	}
	if result == nil {
		return errors.NewPersistError(filepath.Join(s.dir, prefix), errors.New("no job result"))
	}

	paths := s.Paths(prefix)
	contents := []string{
		result.Stdout,
		result.Stderr,
		strconv.Itoa(result.ExitCode),
	}
	for i, path := range paths {
		if err := afero.WriteFile(s.fs, path, []byte(contents[i]), s.mode); err != nil {
			return errors.NewPersistError(path, err)
		}
	}
	return nil
}

// Load reads back the result stored under prefix. Timing metadata is not
// persisted and is left zero.
func (s *Store) Load(prefix string) (*runner.JobResult, error) {
	paths := s.Paths(prefix)
	data := make([]string, len(paths))
	for i, path := range paths {
		b, err := afero.ReadFile(s.fs, path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", path)
		}
		data[i] = string(b)
	}

	code, err := strconv.Atoi(strings.TrimSpace(data[2]))
	if err != nil {
		return nil, errors.NewValidationError("malformed return code").
			WithField(paths[2]).WithValue(data[2]).WithCause(err)
	}
	return &runner.JobResult{Stdout: data[0], Stderr: data[1], ExitCode: code}, nil
}

// CheckDir verifies that the output directory exists and is a directory.
func (s *Store) CheckDir() error {
	info, err := s.fs.Stat(s.dir)
	if err != nil {
		return errors.NewValidationError("output directory is not accessible").
			WithField("outputDir").WithValue(s.dir).WithCause(err)
	}
	if !info.IsDir() {
		return errors.NewValidationError("output path is not a directory").
			WithField("outputDir").WithValue(s.dir)
	}
	return nil
}
