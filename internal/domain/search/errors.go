package search

import "errors"

// ErrSearchFailed wraps a remote search failure. The conversation already
// carries the degraded notice when it is returned.
var ErrSearchFailed = errors.New("search failed")
