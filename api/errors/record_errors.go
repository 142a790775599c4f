// api/errors/record_errors.go
package errors

import "errors"

var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrInvalidRecordData = errors.New("invalid record data")
	ErrTooManyPolicies   = errors.New("too many policies")
)
