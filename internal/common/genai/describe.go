// internal/common/genai/describe.go
package genai

import (
	stderrors "errors"
	"time"

	"venue-recommender/internal/common/errors"
)

// Describe converts a completion error into a StandardError so degraded
// stages log the same codes the rest of the service uses.
func Describe(operation string, timeout time.Duration, err error) *errors.StandardError {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, ErrCompletionTimeout) {
		return errors.NewCompletionTimeoutError(operation, timeout)
	}
	return errors.NewCompletionFailedError(operation, err)
}
