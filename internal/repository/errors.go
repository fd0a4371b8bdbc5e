// Package repository implements the row-level persistence contract of
// the server. Every accessor borrows a connection from the gateway for
// exactly the duration of one operation. Sentinel errors defined here
// let higher layers such as the dispatcher distinguish failure
// scenarios without inspecting driver errors.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a lookup matches no row. Callers
// translate this into a NOT_FOUND style response.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness
// constraint, such as registering a subscriber with a vehicle or
// email that already exists.
var ErrDuplicate = errors.New("duplicate")

// isDuplicateKey recognizes MySQL error 1062 (duplicate entry) without
// depending on the driver's error type.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
