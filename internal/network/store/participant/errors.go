package participant

import (
	"fmt"

	"ascend/pkg/platform/sentinel"
)

// Link failures. Each wraps a sentinel so callers can match either the
// specific or the generic fact.
var (
	ErrCycle         = fmt.Errorf("%w: upline would create a cycle", sentinel.ErrInvalidState)
	ErrAlreadyLinked = fmt.Errorf("%w: participant already has an upline", sentinel.ErrConflict)
	ErrTooDeep       = fmt.Errorf("%w: link would exceed the network depth limit", sentinel.ErrInvalidState)
)
