package adapter

import "errors"

var (
	// ErrBadRequest corresponds to an HTTP 400 response.
	ErrBadRequest = errors.New("bad request")

	// ErrUnauthorized corresponds to an HTTP 401 response. The stored bearer
	// token is missing, expired or invalid.
	ErrUnauthorized = errors.New("client unauthorized")

	// ErrForbidden corresponds to an HTTP 403 response.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound corresponds to an HTTP 404 response.
	ErrNotFound = errors.New("not found")

	// ErrRejected corresponds to an HTTP 409 response: the server refused a
	// pushed record, typically because it holds a newer version.
	ErrRejected = errors.New("record rejected by server")

	// ErrInternalServerError corresponds to an HTTP 500 response.
	ErrInternalServerError = errors.New("internal server error")

	// ErrBadGateway corresponds to an HTTP 502 response.
	ErrBadGateway = errors.New("bad gateway")
)
