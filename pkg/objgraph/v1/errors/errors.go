package errors

import (
	"errors"
	"fmt"
)

// --- objgraph Core Error Types ---

// ConfigError represents an error encountered during the loading, parsing,
// or validation of a comparison profile or engine options.
type ConfigError struct {
	Message string
	Cause   error
}

func NewConfigError(message string, cause error) *ConfigError {
	return &ConfigError{Message: message, Cause: cause}
}
func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}
func (e *ConfigError) Unwrap() error { return e.Cause }

// ValidationError indicates that some input (e.g., profile structure,
// schema version, option values) failed validation checks.
type ValidationError struct {
	Message string
	Cause   error
}

func NewValidationError(message string, cause error) *ValidationError {
	return &ValidationError{Message: message, Cause: cause}
}
func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("validation error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}
func (e *ValidationError) Unwrap() error { return e.Cause }

// MaxDepthExceededError signals that a traversal reached the configured depth
// bound. It is fatal to the top-level Compare or TakeSnapshot call that hit it:
// continuing past a configured safety bound would defeat the bound's purpose.
type MaxDepthExceededError struct {
	Path     string
	MaxDepth int
}

func NewMaxDepthExceededError(path string, maxDepth int) *MaxDepthExceededError {
	return &MaxDepthExceededError{Path: path, MaxDepth: maxDepth}
}
func (e *MaxDepthExceededError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("maximum traversal depth (%d) exceeded", e.MaxDepth)
	}
	return fmt.Sprintf("maximum traversal depth (%d) exceeded at '%s'", e.MaxDepth, e.Path)
}

// MaxObjectCountExceededError signals that a traversal visited more objects
// than the configured bound allows. Fatal to the current top-level call.
type MaxObjectCountExceededError struct {
	Path     string
	MaxCount int64
}

func NewMaxObjectCountExceededError(path string, maxCount int64) *MaxObjectCountExceededError {
	return &MaxObjectCountExceededError{Path: path, MaxCount: maxCount}
}
func (e *MaxObjectCountExceededError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("maximum object count (%d) exceeded", e.MaxCount)
	}
	return fmt.Sprintf("maximum object count (%d) exceeded at '%s'", e.MaxCount, e.Path)
}

// ComparisonError represents an unrecoverable failure while comparing a single
// node: a custom comparer returned an error, a member accessor panicked, or a
// value could not be read. It carries the path at which the failure occurred.
// Structural differences are never reported this way; they accumulate in the
// ComparisonResult instead.
type ComparisonError struct {
	Path  string
	Cause error
}

func NewComparisonError(path string, cause error) *ComparisonError {
	return &ComparisonError{Path: path, Cause: cause}
}
func (e *ComparisonError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("comparison failed: %v", e.Cause)
	}
	return fmt.Sprintf("comparison failed at '%s': %v", e.Path, e.Cause)
}
func (e *ComparisonError) Unwrap() error { return e.Cause }

// CloneError represents a fatal failure while taking a snapshot, typically an
// instance-allocation failure for a concrete type. Per-member copy failures
// are NOT reported this way; they are logged and the member is left at its
// zero value (a partially populated snapshot is preferred over none).
type CloneError struct {
	TypeName string
	Cause    error
}

func NewCloneError(typeName string, cause error) *CloneError {
	return &CloneError{TypeName: typeName, Cause: cause}
}
func (e *CloneError) Error() string {
	if e.TypeName == "" {
		return fmt.Sprintf("snapshot failed: %v", e.Cause)
	}
	return fmt.Sprintf("snapshot failed for type '%s': %v", e.TypeName, e.Cause)
}
func (e *CloneError) Unwrap() error { return e.Cause }

// MemberAccessError indicates that reading or writing a single member failed
// (e.g., an accessor panicked). During comparison it is fatal and surfaces
// wrapped in a ComparisonError; during cloning it is non-fatal and only logged.
type MemberAccessError struct {
	TypeName string
	Member   string
	Cause    error
}

func NewMemberAccessError(typeName, member string, cause error) *MemberAccessError {
	return &MemberAccessError{TypeName: typeName, Member: member, Cause: cause}
}
func (e *MemberAccessError) Error() string {
	return fmt.Sprintf("member access failed for %s.%s: %v", e.TypeName, e.Member, e.Cause)
}
func (e *MemberAccessError) Unwrap() error { return e.Cause }

// ComparerNotFoundError indicates that a comparer name referenced by a
// profile could not be found in the comparer registry.
type ComparerNotFoundError struct {
	ComparerName string
}

func NewComparerNotFoundError(name string) *ComparerNotFoundError {
	return &ComparerNotFoundError{ComparerName: name}
}
func (e *ComparerNotFoundError) Error() string {
	return fmt.Sprintf("comparer not found: %s", e.ComparerName)
}

// IsLimitExceeded reports whether err is one of the two traversal limit
// signals, using errors.As so wrapped limits are still recognized.
func IsLimitExceeded(err error) bool {
	var depthErr *MaxDepthExceededError
	var countErr *MaxObjectCountExceededError
	return errors.As(err, &depthErr) || errors.As(err, &countErr)
}
