package client

import "errors"

var (
	// ErrNetwork covers transport failures and non-2xx responses.
	ErrNetwork = errors.New("network failure")
	// ErrParse is returned when a response body is not the expected JSON.
	ErrParse = errors.New("parse failure")
)

// IsNetwork reports whether err is a network failure.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsParse reports whether err is a parse failure.
func IsParse(err error) bool {
	return errors.Is(err, ErrParse)
}
