package learnvk

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// Result mirrors the VkResult codes a Driver reports back.
type Result int32

const (
	Success                   Result = 0
	NotReady                  Result = 1
	Timeout                   Result = 2
	Incomplete                Result = 5
	ErrorOutOfHostMemory      Result = -1
	ErrorOutOfDeviceMemory    Result = -2
	ErrorInitializationFailed Result = -3
	ErrorDeviceLost           Result = -4
	ErrorLayerNotPresent      Result = -6
	ErrorExtensionNotPresent  Result = -7
	ErrorFeatureNotPresent    Result = -8
	ErrorIncompatibleDriver   Result = -9
	ErrorTooManyObjects       Result = -10
	ErrorUnknown              Result = -13
	ErrorSurfaceLost          Result = -1000000000
	ErrorNativeWindowInUse    Result = -1000000001
	ErrorValidationFailed     Result = -1000011001
	ErrorOutOfPoolMemory      Result = -1000069000
)

var resultNames = map[Result]string{
	Success:                   "success",
	NotReady:                  "not ready",
	Timeout:                   "timeout",
	Incomplete:                "incomplete",
	ErrorOutOfHostMemory:      "out of host memory",
	ErrorOutOfDeviceMemory:    "out of device memory",
	ErrorInitializationFailed: "initialization failed",
	ErrorDeviceLost:           "device lost",
	ErrorLayerNotPresent:      "layer not present",
	ErrorExtensionNotPresent:  "extension not present",
	ErrorFeatureNotPresent:    "feature not present",
	ErrorIncompatibleDriver:   "incompatible driver",
	ErrorTooManyObjects:       "too many objects",
	ErrorUnknown:              "unknown error",
	ErrorSurfaceLost:          "surface lost",
	ErrorNativeWindowInUse:    "native window in use",
	ErrorOutOfPoolMemory:      "out of pool memory",
	ErrorValidationFailed:     "validation failed",
}

func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("result %d", int32(r))
}

func isError(ret Result) bool {
	return ret != Success
}

// Kind categorizes an Error.
type Kind string

const (
	KindBackingCall         Kind = "backing_call"
	KindUnsatisfiable       Kind = "unsatisfiable"
	KindOverrideUnsupported Kind = "override_unsupported"
	KindCapabilitiesUnknown Kind = "capabilities_unknown"
	KindMissingExtension    Kind = "missing_extension"
	KindMissingLayer        Kind = "missing_layer"
	KindMissingFunction     Kind = "missing_function"
	KindMissingFeature      Kind = "missing_feature"
	KindInUse               Kind = "in_use"
	KindNoSuitableDevice    Kind = "no_suitable_device"
	KindInvalidHandle       Kind = "invalid_handle"
	KindAllocation          Kind = "allocation"
)

// NoIndex marks an Error that does not refer to a request or family.
const NoIndex = -1

// Error is returned by every failing operation in this package. Index is the
// offending request index when the failure is tied to one, Name the offending
// extension, layer or function name.
type Error struct {
	Op     string
	Kind   Kind
	Index  int
	Name   string
	Result Result
	Cause  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(string(e.Kind))
	if e.Index != NoIndex {
		fmt.Fprintf(&b, " (index %d)", e.Index)
	}
	if e.Name != "" {
		fmt.Fprintf(&b, " %q", e.Name)
	}
	if e.Result != Success {
		fmt.Fprintf(&b, ": %s (%d)", e.Result, int32(e.Result))
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Kind so callers can test with a bare &Error{Kind: ...}.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newErr(op string, kind Kind) *Error {
	return &Error{Op: op, Kind: kind, Index: NoIndex}
}

// NewError converts a failing Result into an error annotated with the caller's
// frame. It returns nil for Success.
func NewError(ret Result) error {
	if !isError(ret) {
		return nil
	}
	cause := errors.New(ret.String())
	if pc, _, _, ok := runtime.Caller(1); ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			file, line := fn.FileLine(pc)
			cause = errors.Errorf("%s (%d) on %s:%d %s", ret, int32(ret), file, line, fn.Name())
		}
	}
	return &Error{Op: "vulkan", Kind: KindBackingCall, Index: NoIndex, Result: ret, Cause: cause}
}

// backingErr reports a failed driver call. A call that returned Success with
// a null handle or zero count is reported as ErrorInitializationFailed.
func backingErr(op string, ret Result) *Error {
	if ret == Success {
		ret = ErrorInitializationFailed
	}
	e := newErr(op, KindBackingCall)
	e.Result = ret
	return e
}

// IsKind reports whether err, or anything it wraps, is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == k {
			return true
		}
		if c, ok := err.(interface{ Unwrap() error }); ok {
			err = c.Unwrap()
			continue
		}
		next := errors.Cause(err)
		if next == err {
			return false
		}
		err = next
	}
	return false
}
