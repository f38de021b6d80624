package line

import (
	"fmt"

	"ascend/pkg/platform/sentinel"
)

// ErrDuplicateLine means a line with the same (sale, payee, level) exists.
// Batches containing one are not written.
var ErrDuplicateLine = fmt.Errorf("%w: commission line already recorded", sentinel.ErrConflict)

// ErrNotReservable means a line was not approved or was already reserved.
var ErrNotReservable = fmt.Errorf("%w: commission line cannot be reserved", sentinel.ErrConflict)
