package models

import "errors"

// ErrRecordNotFound is wrapped by every repository's not-found sentinel so
// services can detect a missing document without importing the store.
var ErrRecordNotFound = errors.New("record not found")
