package repositories

import "errors"

// ErrNotFound is returned when a referenced document does not exist.
// Handlers map it to a 404 for the record class they were asked about.
var ErrNotFound = errors.New("record not found")
