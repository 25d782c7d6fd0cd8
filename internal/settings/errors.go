package settings

import "errors"

var (
	// ErrTypeMismatch is returned when a key holds a value of the other type.
	ErrTypeMismatch = errors.New("settings: stored value has a different type")

	// ErrEmptyKey is returned for writes with an empty key.
	ErrEmptyKey = errors.New("settings: key cannot be empty")
)
