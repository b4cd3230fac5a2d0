package model

import "errors"

// ErrDuplicateKey reports a collision on a generated unique value (codes, public ids)
// that the caller is expected to regenerate and retry.
var ErrDuplicateKey = errors.New("duplicate key")
