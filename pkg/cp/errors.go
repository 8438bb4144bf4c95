package cp

import "errors"

// ErrInconsistency is the single failure signal of the engine. It is
// returned when a domain is wiped out or when an objective bound forces a
// backtrack. Search treats it as a failed alternative; everywhere else it is
// propagated to the caller unchanged.
var ErrInconsistency = errors.New("cp: inconsistency")

// Construction errors. They are reported while the model is being built and
// never occur during search.
var (
	ErrInvalidRange    = errors.New("cp: invalid domain range")
	ErrEmptyDomain     = errors.New("cp: empty domain")
	ErrOverflow        = errors.New("cp: integer overflow in view")
	ErrInvalidArgument = errors.New("cp: invalid argument")
)

// IsInconsistency reports whether err carries the failure signal.
func IsInconsistency(err error) bool {
	return errors.Is(err, ErrInconsistency)
}
