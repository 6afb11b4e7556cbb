package catauthz

import "errors"

// Sentinel errors returned by the engine: flat Err* vars plus Is* helpers
// rather than a custom error tree.
var (
	// ErrUnknownAction is returned when an action name or abbreviation is
	// not in the registry. Surfaced to the caller.
	ErrUnknownAction = errors.New("catauthz: unknown action")

	// ErrResourceShapeMismatch is returned when a candidate's (parent, child)
	// shape does not match the action's declared scope. Surfaced.
	ErrResourceShapeMismatch = errors.New("catauthz: resource shape does not match action scope")

	// ErrDuplicateAction is returned at registration time for an
	// incompatible redefinition of an existing action name or abbreviation.
	// Fatal at startup.
	ErrDuplicateAction = errors.New("catauthz: duplicate action registration")

	// ErrInvalidAction is returned for a structurally invalid action, such
	// as takes_child=true with takes_parent=false.
	ErrInvalidAction = errors.New("catauthz: invalid action definition")

	// ErrReservedParam is returned when a fragment uses one of the reserved
	// parameter names (actor, actor_id, action, implicit_deny).
	ErrReservedParam = errors.New("catauthz: parameter name is reserved")

	// ErrParamCollision is returned when two fragments from different
	// sources bind the same parameter name.
	ErrParamCollision = errors.New("catauthz: parameter name collision between providers")

	// ErrProviderError wraps an error returned by a provider's Fragments
	// call; the resolver never silently drops a provider's contribution
	// because that would change the decision semantics.
	ErrProviderError = errors.New("catauthz: provider error")

	// ErrSQLError wraps a failure of the resolver's SQL execution. Never
	// masquerades as a deny.
	ErrSQLError = errors.New("catauthz: sql error")

	// ErrCancelled is returned when the caller's context is cancelled or its
	// deadline is exceeded while the resolver is executing. Partial
	// verdicts are never returned.
	ErrCancelled = errors.New("catauthz: cancelled")
)

// IsUnknownActionErr reports whether err is or wraps ErrUnknownAction.
func IsUnknownActionErr(err error) bool { return errors.Is(err, ErrUnknownAction) }

// IsResourceShapeMismatchErr reports whether err is or wraps ErrResourceShapeMismatch.
func IsResourceShapeMismatchErr(err error) bool { return errors.Is(err, ErrResourceShapeMismatch) }

// IsDuplicateActionErr reports whether err is or wraps ErrDuplicateAction.
func IsDuplicateActionErr(err error) bool { return errors.Is(err, ErrDuplicateAction) }

// IsInvalidActionErr reports whether err is or wraps ErrInvalidAction.
func IsInvalidActionErr(err error) bool { return errors.Is(err, ErrInvalidAction) }

// IsProviderErr reports whether err is or wraps ErrProviderError.
func IsProviderErr(err error) bool { return errors.Is(err, ErrProviderError) }

// IsSQLErr reports whether err is or wraps ErrSQLError.
func IsSQLErr(err error) bool { return errors.Is(err, ErrSQLError) }

// IsCancelledErr reports whether err is or wraps ErrCancelled.
func IsCancelledErr(err error) bool { return errors.Is(err, ErrCancelled) }

// ProviderError names the provider source responsible for a failed
// Fragments call, so a caller can identify which provider misbehaved without
// parsing the error text.
type ProviderError struct {
	Source string
	Err    error
}

func (e *ProviderError) Error() string {
	return "catauthz: provider " + e.Source + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Is reports ErrProviderError for errors.Is(err, ErrProviderError).
func (e *ProviderError) Is(target error) bool { return target == ErrProviderError }
