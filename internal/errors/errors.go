// Package errors provides centralized error definitions and error handling
// utilities for the pgbox codebase. It defines domain-specific errors,
// semantic error types, error constructors with context wrapping, and error
// classification helpers.
//
// # Error Types
//
// The package provides two categories of errors:
//
// Domain-specific errors represent errors from specific subsystems:
//   - InstanceError: errors related to instance lifecycle management
//   - InstallError: errors related to binary bundle or extension installation
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found
//   - AlreadyExistsError: resource already exists
//   - ValidationError: invalid input or state
//
// # Usage
//
// Creating errors:
//
//	// Domain-specific error
//	err := errors.NewInstanceError("failed to stop instance", errors.ErrInstanceNotRunning)
//
//	// Semantic error
//	err := errors.NewNotFoundError("instance", "analytics")
//
//	// With context wrapping
//	err := errors.NewInstallError("download failed", baseErr).WithVersion("17.2.0")
//
// Checking errors:
//
//	// Check for specific sentinel errors
//	if errors.Is(err, errors.ErrInstanceNotFound) { ... }
//
//	// Use classification helpers
//	if errors.IsRetryable(err) { ... }
//	if errors.IsUserFacing(err) { ... }
//
// # Error Classification
//
// Errors can be classified by behavior:
//   - Retryable: transient errors (network, extraction) where re-running the
//     operation resumes from the failed step
//   - UserFacing: errors safe to display to users (vs internal errors)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Instance-related sentinel errors
var (
	// ErrInstanceNotFound indicates that no instance record exists for a name.
	ErrInstanceNotFound = New("instance not found")
	// ErrInstanceAlreadyRunning indicates that an instance is already running.
	ErrInstanceAlreadyRunning = New("instance already running")
	// ErrInstanceNotRunning indicates that an instance is not running.
	ErrInstanceNotRunning = New("instance not running")
	// ErrPidParse indicates that the server's pid marker file could not be parsed.
	ErrPidParse = New("failed to parse pid from postmaster.pid")
	// ErrInvalidInstanceName indicates that a name is not a valid path segment.
	ErrInvalidInstanceName = New("invalid instance name")
)

// Installation-related sentinel errors
var (
	// ErrUnsupportedPlatform indicates that no binary bundle exists for the host.
	ErrUnsupportedPlatform = New("unsupported platform")
	// ErrInstallationNotFound indicates that no extracted installation exists.
	ErrInstallationNotFound = New("installation not found")
	// ErrExtractionFailed indicates that bundle extraction did not produce a
	// runnable installation.
	ErrExtractionFailed = New("extraction failed")
	// ErrBundleEmpty indicates that this binary carries no embedded bundle.
	ErrBundleEmpty = New("no embedded server bundle")
	// ErrExtensionNotFound indicates that an extension name is not in the catalog.
	ErrExtensionNotFound = New("extension not found")
)

// General sentinel errors
var (
	// ErrNoHomeDir indicates that the user's home directory could not be resolved.
	ErrNoHomeDir = New("could not determine home directory")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// PgboxError is the base interface for all pgbox errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type PgboxError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	// This is used by errors.Is() for error comparison.
	Is(target error) bool

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// InstanceError represents errors related to instance lifecycle management.
//
// Example:
//
//	err := errors.NewInstanceError("failed to start", errors.ErrInstanceAlreadyRunning)
//	err = err.WithInstance("analytics").WithPID(4242)
type InstanceError struct {
	baseError
	Instance string
	PID      int
}

// NewInstanceError creates a new InstanceError.
func NewInstanceError(message string, cause error) *InstanceError {
	return &InstanceError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithInstance adds an instance name to the error context.
func (e *InstanceError) WithInstance(name string) *InstanceError {
	e.Instance = name
	return e
}

// WithPID adds the recorded process id to the error context.
func (e *InstanceError) WithPID(pid int) *InstanceError {
	e.PID = pid
	return e
}

// Error returns the formatted error message.
func (e *InstanceError) Error() string {
	var parts []string
	if e.Instance != "" {
		parts = append(parts, fmt.Sprintf("instance=%s", e.Instance))
	}
	if e.PID != 0 {
		parts = append(parts, fmt.Sprintf("pid=%d", e.PID))
	}

	prefix := "instance error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("instance error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *InstanceError) Is(target error) bool {
	if _, ok := target.(*InstanceError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// InstallError represents errors related to binary bundle or extension
// installation. Install errors are retryable by default: the installer's
// idempotency checks re-trigger only the failed step on the next run.
//
// Example:
//
//	err := errors.NewInstallError("download failed", baseErr).
//		WithVersion("17.2.0").
//		WithPlatform("aarch64-apple-darwin")
type InstallError struct {
	baseError
	Version  string
	Platform string
}

// NewInstallError creates a new InstallError.
func NewInstallError(message string, cause error) *InstallError {
	return &InstallError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			retryable:  true,
			userFacing: true,
		},
	}
}

// WithVersion adds a server version to the error context.
func (e *InstallError) WithVersion(version string) *InstallError {
	e.Version = version
	return e
}

// WithPlatform adds a platform tag to the error context.
func (e *InstallError) WithPlatform(platform string) *InstallError {
	e.Platform = platform
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *InstallError) WithRetryable(r bool) *InstallError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *InstallError) Error() string {
	var parts []string
	if e.Version != "" {
		parts = append(parts, fmt.Sprintf("version=%s", e.Version))
	}
	if e.Platform != "" {
		parts = append(parts, fmt.Sprintf("platform=%s", e.Platform))
	}

	prefix := "install error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("install error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *InstallError) Is(target error) bool {
	if _, ok := target.(*InstallError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError indicates that a requested resource does not exist.
type NotFoundError struct {
	baseError
	Resource string
	ID       string
}

// NewNotFoundError creates a new NotFoundError for the given resource kind
// and identifier.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s %q not found", resource, id),
			retryable:  false,
			userFacing: true,
		},
		Resource: resource,
		ID:       id,
	}
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	// Instance lookups surface as the instance sentinel too.
	if e.Resource == "instance" && target == ErrInstanceNotFound {
		return true
	}
	return e.baseError.Is(target)
}

// AlreadyExistsError indicates that a resource already exists.
type AlreadyExistsError struct {
	baseError
	Resource string
	ID       string
}

// NewAlreadyExistsError creates a new AlreadyExistsError.
func NewAlreadyExistsError(resource, id string) *AlreadyExistsError {
	return &AlreadyExistsError{
		baseError: baseError{
			message:    fmt.Sprintf("%s %q already exists", resource, id),
			retryable:  false,
			userFacing: true,
		},
		Resource: resource,
		ID:       id,
	}
}

// Is checks if this error matches the target.
func (e *AlreadyExistsError) Is(target error) bool {
	if _, ok := target.(*AlreadyExistsError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError indicates that input validation failed.
type ValidationError struct {
	baseError
	Field string
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			cause:      ErrInvalidInput,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithField adds the offending field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error [field=%s]: %s", e.Field, e.message)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	return target == ErrInvalidInput || e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable reports whether err is transient: re-running the operation may
// succeed because the filesystem is left in a state the idempotency checks
// can resume from.
func IsRetryable(err error) bool {
	var pe PgboxError
	if As(err, &pe) {
		return pe.IsRetryable()
	}
	return false
}

// IsUserFacing reports whether err carries a message safe to display to end
// users verbatim.
func IsUserFacing(err error) bool {
	var pe PgboxError
	if As(err, &pe) {
		return pe.IsUserFacing()
	}
	return false
}

// IsNotFound reports whether err indicates a missing resource.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return Is(err, ErrInstanceNotFound) ||
		Is(err, ErrInstallationNotFound) ||
		Is(err, ErrExtensionNotFound) ||
		As(err, &nf)
}
