package service

import "errors"

// Error classes surfaced by the link services. Callers classify with
// errors.Is; detail is carried by wrapping (fmt.Errorf("%w: ...")).
var (
	// ErrValidation covers malformed URLs, malformed custom slugs and
	// other bad inputs.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized signals a missing caller identity where one is
	// required.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound signals that the link does not exist, is not owned by
	// the caller, or (on resolution) has expired.
	ErrNotFound = errors.New("not found")

	// ErrConflict signals a taken slug or a URL the owner has already
	// shortened.
	ErrConflict = errors.New("conflict")

	// ErrQuotaExceeded signals the per-owner custom-slug cap.
	ErrQuotaExceeded = errors.New("custom slug quota exceeded")

	// ErrSlugSpaceExhausted signals that the bounded random-slug retry
	// loop gave up. Treated as an internal error at the boundary.
	ErrSlugSpaceExhausted = errors.New("could not generate a unique slug")
)
