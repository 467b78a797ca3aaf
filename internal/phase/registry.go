package phase

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Iron-Ham/multiphase/internal/errors"
)

// DefaultExec is the executable family supported out of the box.
const DefaultExec = "pfdo_mgz2image"

// Strategy assembles the command line of one phase for a particular
// executable family.
type Strategy interface {
	// Validate reports whether the strategy is usable. It is called when the
	// strategy is registered.
	Validate() error
	// Assemble builds the command for phase p.
	Assemble(spec Spec, p Phase) Command
}

// FlagStrategy assembles commands of the form
//
//	<binary> <inputFlag> <inputDir> <outputFlag> <outputDir> <common...> <specific...>
//
// The directory values are always single arguments. The common and specific
// fragments are split on whitespace.
type FlagStrategy struct {
	// Binary is the program to launch. Empty means the executable identifier.
	Binary     string
	InputFlag  string
	OutputFlag string
}

// NewFlagStrategy returns the "-I <in> -O <out>" strategy used by the
// pfdo family of tools.
func NewFlagStrategy() FlagStrategy {
	return FlagStrategy{InputFlag: "-I", OutputFlag: "-O"}
}

// Validate checks that both directory flags are set.
func (s FlagStrategy) Validate() error {
	if s.InputFlag == "" {
		return errors.NewValidationError("input flag must be set").WithField("input_flag")
	}
	if s.OutputFlag == "" {
		return errors.NewValidationError("output flag must be set").WithField("output_flag")
	}
	return nil
}

// Assemble builds the command for phase p.
func (s FlagStrategy) Assemble(spec Spec, p Phase) Command {
	path := s.Binary
	if path == "" {
		path = spec.Exec
	}

	args := []string{s.InputFlag, spec.InputDir, s.OutputFlag, spec.OutputDir}
	args = append(args, fields(spec.CommonArgs)...)
	args = append(args, fields(p.Args)...)

	return Command{
		Phase: p,
		Exec:  spec.Exec,
		Path:  path,
		Args:  args,
	}
}

// Registry maps executable identifiers to strategies.
// It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// DefaultRegistry returns a Registry holding the built-in executables.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	// The built-in strategy is known to be valid.
	_ = r.Register(DefaultExec, NewFlagStrategy())
	return r
}

// Register adds or replaces the strategy for id after validating it.
func (r *Registry) Register(id string, s Strategy) error {
	if id == "" {
		return errors.NewValidationError("executable identifier must not be empty").WithField("name")
	}
	if s == nil {
		return errors.NewValidationError("strategy must not be nil").WithField(id)
	}
	if err := s.Validate(); err != nil {
		return errors.Wrapf(err, "executable %q", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[id] = s
	return nil
}

// Lookup returns the strategy registered for id.
func (r *Registry) Lookup(id string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.strategies[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %v)", errors.ErrUnsupportedExecutable, id, r.namesLocked())
	}
	return s, nil
}

// Names returns the registered identifiers in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Plan builds one command per phase of spec.SpecificArgs, in order.
// It fails before producing any command if spec.Exec is not registered.
func (r *Registry) Plan(spec Spec) ([]Command, error) {
	s, err := r.Lookup(spec.Exec)
	if err != nil {
		return nil, err
	}

	phases := Split(spec.SpecificArgs)
	cmds := make([]Command, 0, len(phases))
	for _, p := range phases {
		cmds = append(cmds, s.Assemble(spec, p))
	}
	return cmds, nil
}
