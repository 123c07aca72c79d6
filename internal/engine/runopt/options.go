package runopt

import "github.com/google/uuid"

type (
	// Options contains optional parameters for a workflow run
	Options struct {
		RunID    string
		MaxSteps int
	}

	// Applier mutates Options before a run starts
	Applier func(*Options)
)

// DefaultMaxSteps bounds the number of nodes a single run may visit
const DefaultMaxSteps = 16

// DefaultOptions returns an Options instance with defaults applied
func DefaultOptions(apps ...Applier) *Options {
	opt := &Options{
		RunID:    uuid.NewString(),
		MaxSteps: DefaultMaxSteps,
	}
	ApplyOptions(opt, apps...)
	return opt
}

// ApplyOptions applies option appliers in order
func ApplyOptions(opt *Options, apps ...Applier) {
	for _, app := range apps {
		app(opt)
	}
}

// WithRunID sets the identifier attached to every emitted update
func WithRunID(id string) Applier {
	return func(opt *Options) {
		opt.RunID = id
	}
}

// WithMaxSteps overrides the node visit limit
func WithMaxSteps(n int) Applier {
	return func(opt *Options) {
		opt.MaxSteps = n
	}
}
