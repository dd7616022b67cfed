package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrUnknownTable signals a bulk read against a table outside the mirror allowlist.
	ErrUnknownTable = errors.New("repository: unknown table")
)
