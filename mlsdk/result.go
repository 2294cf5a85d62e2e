package mlsdk

import (
	"fmt"

	"github.com/pkg/errors"
)

// Result is a vendor status code. Zero means success; everything else names
// a failure or an expected steady-state condition (Pending, Timeout,
// PoseNotFound) that callers branch on rather than treat as an error.
type Result int32

// Global result codes.
const (
	ResultOk                 Result = 0
	ResultPending            Result = 1
	ResultTimeout            Result = 2
	ResultLocked             Result = 3
	ResultUnspecifiedFailure Result = 4
	ResultInvalidParam       Result = 5
	ResultAllocFailed        Result = 6
	ResultPermissionDenied   Result = 7
	ResultNotImplemented     Result = 8
)

// Perception-prefixed result codes.
const (
	ResultPerceptionSystemNotStarted Result = 0x10000 | iota
	ResultPoseNotFound
)

// String returns the vendor-style name for the code.
func (r Result) String() string {
	switch r {
	case ResultOk:
		return "Ok"
	case ResultPending:
		return "Pending"
	case ResultTimeout:
		return "Timeout"
	case ResultLocked:
		return "Locked"
	case ResultUnspecifiedFailure:
		return "UnspecifiedFailure"
	case ResultInvalidParam:
		return "InvalidParam"
	case ResultAllocFailed:
		return "AllocFailed"
	case ResultPermissionDenied:
		return "PermissionDenied"
	case ResultNotImplemented:
		return "NotImplemented"
	case ResultPerceptionSystemNotStarted:
		return "PerceptionSystemNotStarted"
	case ResultPoseNotFound:
		return "PoseNotFound"
	default:
		return fmt.Sprintf("Result(%d)", int32(r))
	}
}

// Ok reports whether the result is a success.
func (r Result) Ok() bool { return r == ResultOk }

// Err converts a non-Ok result into an error, or nil for Ok.
func (r Result) Err() error {
	if r == ResultOk {
		return nil
	}
	return errors.Errorf("perception result %s", r)
}

// ErrTimeout is returned by blocking fetch calls when no data arrived
// within the requested window. Acquisition loops treat it as "try again".
var ErrTimeout = errors.New("fetch timed out")
