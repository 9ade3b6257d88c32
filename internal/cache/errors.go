package cache

import "errors"

var (
	// ErrDuplicate reports that a row for the same URL fingerprint already exists.
	ErrDuplicate = errors.New("duplicate fingerprint")
	// ErrCodeTaken reports a short code collision on insert.
	ErrCodeTaken = errors.New("short code taken")
)
