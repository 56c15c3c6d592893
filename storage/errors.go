package storage

import "errors"

// ErrDuplicate reports a keyed insert rejected by a uniqueness rule
// (re-enrolling a baseline, a second non-terminal ride for the same
// rider and event). Services translate it into a conflict for callers.
var ErrDuplicate = errors.New("duplicate row")
