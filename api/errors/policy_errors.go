// api/errors/policy_errors.go
package errors

import "errors"

var (
	ErrPolicyNotFound      = errors.New("policy not found")
	ErrPolicyAlreadyExists = errors.New("policy already exists")
	ErrPolicyExpired       = errors.New("policy expired")
	ErrInvalidPolicyData   = errors.New("invalid policy data")
	ErrInvalidPolicyID     = errors.New("invalid policy id")
	ErrInvalidEffect       = errors.New("invalid policy effect")
	ErrInvalidMode         = errors.New("invalid policy mode")
	ErrInvalidOperator     = errors.New("invalid condition operator")
	ErrTooManyConditions   = errors.New("too many conditions")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrDatabaseOperation   = errors.New("database operation failed")
	ErrInternalServer      = errors.New("internal server error")
	ErrInvalidPagination   = errors.New("invalid pagination parameters")
	ErrCapacityExceeded    = errors.New("capacity exceeded")
)
