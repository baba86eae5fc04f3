// Package v1 provides the authentication business logic for API version 1.
//
// Error handling: the package defines sentinel errors for the failures the
// HTTP boundary has contracts for. Business methods wrap them with context
// using fmt.Errorf("%w"); handlers branch with errors.Is. Anything not in
// this list propagates unhandled and maps to a generic 500.
package v1

import "errors"

// Sentinel errors for authentication operations.
var (
	// ErrInvalidCredentials is the uniform login failure. It covers both
	// an unknown username and a wrong password so the response never
	// reveals which one occurred.
	// HTTP Status: 401 Unauthorized
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserExists indicates the username is already taken.
	// HTTP Status: 409 Conflict
	ErrUserExists = errors.New("user already exists")

	// ErrCredentialNotFound indicates no credential row exists for the
	// username. The orchestrator converts it into ErrInvalidCredentials
	// at the login boundary; it never reaches a client.
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrThingNotFound indicates the requested thing does not exist.
	// HTTP Status: 404 Not Found
	ErrThingNotFound = errors.New("thing not found")
)
