// api/errors/attribute_errors.go
package errors

import "errors"

var (
	ErrAttributeNotFound    = errors.New("attribute not found")
	ErrAttributeExpired     = errors.New("attribute expired")
	ErrTooManyAttributes    = errors.New("too many attributes")
	ErrInvalidAttributeData = errors.New("invalid attribute data")
	ErrInvalidAttributeType = errors.New("invalid attribute type")
)
