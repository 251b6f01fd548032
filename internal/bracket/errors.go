package bracket

import "github.com/cockroachdb/errors"

// Error classes surfaced by the bracket core. Callers classify with errors.Is.
var (
	// Bad input: roster too small, wrong team count, tie submitted, illegal transition.
	ErrValidation = errors.New("validation failed")
	// The stored bracket contradicts itself or a requested change would break it.
	ErrIntegrity = errors.New("bracket integrity conflict")
	ErrNotFound  = errors.New("not found")
	// Gateway failure. The write that failed was rolled back.
	ErrStorage = errors.New("storage failure")
)
