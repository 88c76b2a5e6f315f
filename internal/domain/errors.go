package domain

import "errors"

var (
	ErrValidation             = errors.New("validation")              // 400
	ErrNotFound               = errors.New("not found")               // 404
	ErrAuthenticationRequired = errors.New("authentication required") // 401
	ErrUnauthorized           = errors.New("unauthorized")            // 401, credential rejected by the remote authority
	ErrForbidden              = errors.New("forbidden")               // 403, signed in but the role may not do this
	ErrConflict               = errors.New("conflict")                // 409
	ErrRemoteFailure          = errors.New("remote failure")          // 502
)
