package remediate

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// BatchError records the failure of one tagging batch. It is isolated to
// its batch; remaining batches still run.
type BatchError struct {
	EntityIDs []string
	Cause     error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("remediation batch of %d entities failed: %v", len(e.EntityIDs), e.Cause)
}

func (e *BatchError) Unwrap() error {
	return e.Cause
}

// throttleCodes are the API error codes the cloud returns when it wants
// callers to back off.
var throttleCodes = map[string]struct{}{
	"Throttling":                {},
	"ThrottlingException":       {},
	"RequestLimitExceeded":      {},
	"RequestThrottled":          {},
	"RequestThrottledException": {},
	"TooManyRequestsException":  {},
	"SlowDown":                  {},
}

// IsThrottle reports whether err is a rate-limit signal. A per-call
// timeout counts as well; the retry policy treats both the same way.
func IsThrottle(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		_, ok := throttleCodes[apiErr.ErrorCode()]
		return ok
	}
	return false
}
