package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoViableCandidate means filtering left nothing to choose from.
	// Fatal for the run; no downstream stage is attempted.
	ErrNoViableCandidate = errors.New("no viable candidate")
	// ErrResearchMalformed means the research capability returned a record
	// that failed structural validation twice.
	ErrResearchMalformed = errors.New("research output malformed")
	// ErrRenderingFailed means no artifact exists; a note is never composed
	// without an artifact reference.
	ErrRenderingFailed = errors.New("rendering failed")

	ErrInvalidInput = errors.New("invalid input")
	ErrTemporary    = errors.New("temporary failure")
)

var errNilRecord = errors.New("nil record")

func errMissingField(name string) error {
	return fmt.Errorf("missing or empty field %q", name)
}

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
