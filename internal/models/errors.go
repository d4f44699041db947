package models

import "errors"

// ErrNotFound is returned when a variation or frame does not exist.
var ErrNotFound = errors.New("entity not found")
