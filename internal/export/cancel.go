package export

import "errors"

// ErrTerminated is returned by a StorageBroker scan to cooperatively abort
// the current traversal; StatusCallback methods have no return value and
// cannot raise it. It is the only error that
// propagates out of Export() without being absorbed by the per-collection
// or per-document error-reporting tiers.
var ErrTerminated = errors.New("export: traversal terminated")
