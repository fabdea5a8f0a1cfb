package accounts

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes surfaced to clients alongside structured errors.
const (
	TextCodeInvalidCreds    = "auth_invalid_credentials"
	TextCodeEmailExists     = "auth_email_exists"
	TextCodeEmptyPassword   = "auth_empty_password"
	TextCodeTokenExpired    = "auth_token_expired"
	TextCodeTokenMalformed  = "auth_token_malformed"
	TextCodeTooManyAttempts = "auth_too_many_attempts"
	TextCodeDataParseError  = "auth_data_parse_error"
	TextCodeMissingSecret   = "auth_missing_signing_secret"
)

// ErrIdentityNotFound is returned when a user lookup comes back empty.
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrMismatchedHashAndPassword is the generic credentials error. It is
// deliberately shared between "unknown email" and "wrong password" so a
// client cannot tell which part of the pair failed.
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrEmailAlreadyRegistered is returned when sign-up finds an existing
// account for the requested email.
var ErrEmailAlreadyRegistered = errors.New("email already registered", errors.CategoryConflict).
	WithTextCode(TextCodeEmailExists).
	WithCode(errors.CodeConflict)

// ErrNoEmptyString rejects empty passwords before they reach bcrypt.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrTokenExpired is returned when a bearer token is past its expiry claim.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed covers tokens that fail to parse or whose signature
// does not verify.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTooManyLoginAttempts is returned while an account is cooling down.
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts)

// ErrUnableToParseData covers body parse failures at the HTTP boundary.
var ErrUnableToParseData = errors.New("unable to parse data", errors.CategoryBadInput).
	WithTextCode(TextCodeDataParseError).
	WithCode(errors.CodeBadRequest)

// ErrMissingSigningSecret means the process was started without a token
// signing secret. Fatal at startup, never a per request error.
var ErrMissingSigningSecret = errors.New("token signing secret is not configured", errors.CategoryInternal).
	WithTextCode(TextCodeMissingSecret)

// WrapValidationErrors converts ozzo validation output into a structured
// validation error carrying the per field messages as metadata.
func WrapValidationErrors(err error) *errors.Error {
	if err == nil {
		return nil
	}

	fields := map[string]any{}
	for field, msg := range FormatValidationErrorToMap(err) {
		fields[field] = msg
	}

	return errors.Wrap(err, errors.CategoryValidation, "invalid request payload").
		WithCode(errors.CodeBadRequest).
		WithMetadata(fields)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
