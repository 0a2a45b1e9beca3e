package core

import "errors"

// User errors
var (
	ErrEmailInUse   = errors.New("email already in use") // 409 Conflict
	ErrUserNotFound = errors.New("user not found")       // 404 Not Found
)

// Credential errors. Unknown email and wrong password share one sentinel so
// the response never reveals which check failed.
var (
	ErrWrongCredentials = errors.New("email or password is wrong") // 401
	ErrNotVerified      = errors.New("user not verified")          // 401
)

// Verification state errors
var (
	ErrAlreadyVerified = errors.New("verification has already been passed") // 400
)

// Session errors
var (
	ErrMissingAuthHeader = errors.New("missing authorization header") // 401
	ErrInvalidToken      = errors.New("invalid session token")        // 401
	ErrSessionExpired    = errors.New("session expired")              // 401
	ErrSessionRevoked    = errors.New("session revoked")              // 401
	ErrCacheNotFound     = errors.New("user not found in cache")
)

// Validation errors (client input)
var (
	ErrInvalidSubscription = errors.New("invalid subscription tier") // 400
)

// ErrInternal covers store updates that did not apply, filesystem failures
// and other unexpected conditions. Wrap the cause with %w so errors.Is keeps
// matching while the cause stays available for logs.
var ErrInternal = errors.New("internal error") // 500

// Config errors (server-side configuration)
var (
	ErrStorageRequired     = errors.New("user storage is required") // 500
	ErrHTTPAdapterRequired = errors.New("http adapter is required") // 500
	ErrSecretRequired      = errors.New("secret is required")       // 500
	ErrSecretTooShort      = errors.New("secret too short")         // 500
	ErrBaseURLRequired     = errors.New("base url is required")     // 500
	ErrAvatarDirRequired   = errors.New("avatar dir is required")   // 500
)
