package builder

import (
	"fmt"

	"github.com/agbgames/cgt/internal/errors"
)

// Outcome is the overall result of a build.
type Outcome int

const (
	// Succeeded means the bundle was written. Packing and hook problems are
	// reported as warnings and do not change the outcome.
	Succeeded Outcome = iota
	// FailedDueToEnvironment means a file or directory the build needs is
	// missing or inaccessible.
	FailedDueToEnvironment
	// FailedDueToDescriptorErrors means the descriptor is malformed,
	// incomplete or incompatible, or the bundle could not be written.
	FailedDueToDescriptorErrors
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "Succeeded"
	case FailedDueToEnvironment:
		return "FailedDueToEnvironment"
	case FailedDueToDescriptorErrors:
		return "FailedDueToDescriptorErrors"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// MarshalText renders the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// ExitCode maps the outcome to the process exit code.
func (o Outcome) ExitCode() int {
	switch o {
	case Succeeded:
		return errors.ExitSuccess
	case FailedDueToEnvironment:
		return errors.ExitEnvironmentError
	case FailedDueToDescriptorErrors:
		return errors.ExitConfigError
	default:
		return errors.ExitRuntimeError
	}
}

// outcomeOf classifies a failed step by the kind of its error.
func outcomeOf(err error) Outcome {
	if errors.KindOf(err) == errors.KindEnvironment {
		return FailedDueToEnvironment
	}
	return FailedDueToDescriptorErrors
}
