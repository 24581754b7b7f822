package devserver

import "errors"

var (
	ErrBadRequest   = errors.New("badRequest")   // 400
	ErrUnauthorized = errors.New("Unauthorized") // 401
	ErrForbidden    = errors.New("forbidden")    // 403
	ErrNotFound     = errors.New("notFound")     // 404
	ErrInternal     = errors.New("Internal")     // 500
)
