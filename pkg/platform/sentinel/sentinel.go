// Package sentinel names the storage facts that services translate into
// domain errors. Stores wrap these with context; services match with
// errors.Is and never leak them to callers.
package sentinel

import "errors"

var (
	// ErrNotFound means no participant, plan, sale, line or payout has the key.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a uniqueness constraint rejected the write, such as a
	// duplicate sale reference.
	ErrConflict = errors.New("conflict")
	// ErrAlreadyUsed means a one-time value, such as a referral code, is taken.
	ErrAlreadyUsed = errors.New("already used")
	// ErrInvalidState means a conditional update found the row in another state.
	ErrInvalidState = errors.New("invalid state")
)
