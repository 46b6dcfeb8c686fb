package domain

import "errors"

var (
	// ErrInvalidQuery is returned when the search query is missing or blank
	ErrInvalidQuery = errors.New("query parameter q is required")

	// ErrMissingCredential is returned when the search API key is not configured
	ErrMissingCredential = errors.New("search API key is not configured")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrProviderTimeout is returned when a provider call exceeds its timeout
	ErrProviderTimeout = errors.New("provider request timed out")

	// ErrProviderStatus is returned when a provider answers with a non-2xx status
	ErrProviderStatus = errors.New("provider returned an error status")

	// ErrProviderUnavailable is returned when the provider cannot be reached
	ErrProviderUnavailable = errors.New("provider request failed")

	// ErrProviderPayload is returned when a provider answers with a body that is not JSON
	ErrProviderPayload = errors.New("provider returned invalid JSON")

	// ErrUnsupportedPlatform is returned when no normalizer exists for a platform tag
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrUserNotFound is returned when no user matches the username
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidPassword is returned when the password does not match
	ErrInvalidPassword = errors.New("invalid password")

	// ErrAuthUnavailable is returned when no user store is configured
	ErrAuthUnavailable = errors.New("user store is not configured")
)
