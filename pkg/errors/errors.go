package errors

import "errors"

// ErrOptimisticLock the record was modified by another operation
var ErrOptimisticLock = errors.New("record was modified by another operation, refresh and retry")
