// Package apierr defines the CATEGORY.SPECIFIC error taxonomy the service
// surfaces to HTTP clients, and the mapping from internal failures onto it.
// Raw library errors never cross the HTTP boundary unwrapped.
package apierr

import (
	"errors"
	"net/http"
)

// Error is a client-facing error carrying a stable code and HTTP status.
type Error struct {
	Code   string `json:"code"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
	Tip    string `json:"tip,omitempty"`
	Status int    `json:"-"`
	cause  error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Code + ": " + e.Detail
	}
	return e.Code + ": " + e.Title
}

func (e *Error) Unwrap() error { return e.cause }

func newErr(code string, status int, title string) *Error {
	return &Error{Code: code, Status: status, Title: title}
}

// WithDetail returns a copy of e with Detail set.
func (e *Error) WithDetail(detail string) *Error {
	c := *e
	c.Detail = detail
	return &c
}

// WithTip returns a copy of e with Tip set.
func (e *Error) WithTip(tip string) *Error {
	c := *e
	c.Tip = tip
	return &c
}

// WithCause attaches an underlying error for logging (never serialized).
func (e *Error) WithCause(cause error) *Error {
	c := *e
	c.cause = cause
	return &c
}

// Known taxonomy entries (§7).
var (
	InputInvalid           = newErr("INPUT.INVALID", http.StatusBadRequest, "The request body failed validation.")
	InputMissingRequired   = newErr("INPUT.MISSING_REQUIRED", http.StatusBadRequest, "A required field is missing.")
	SystemIncompatible     = newErr("SYSTEM.INCOMPATIBLE", http.StatusBadRequest, "The zodiac system and requested options are incompatible.")
	AyanamshaRequired      = newErr("AYANAMSHA.REQUIRED", http.StatusBadRequest, "An ayanamsha id is required for the sidereal system.")
	AyanamshaUnsupported   = newErr("AYANAMSHA.UNSUPPORTED", http.StatusBadRequest, "The requested ayanamsha id is not registered.")
	BodiesUnsupported      = newErr("BODIES.UNSUPPORTED", http.StatusBadRequest, "One or more requested bodies are not supported.")
	RangeEphemerisOutside  = newErr("RANGE.EPHEMERIS_OUTSIDE", http.StatusBadRequest, "The requested instant falls outside the loaded ephemeris coverage.")
	TimeAmbiguous          = newErr("TIME.AMBIGUOUS", http.StatusBadRequest, "The local time falls in a DST fold and is ambiguous.")
	TimeNonexistent        = newErr("TIME.NONEXISTENT", http.StatusBadRequest, "The local time falls in a DST spring-forward gap.")
	KernelsNotAvailable    = newErr("KERNELS.NOT_AVAILABLE", http.StatusServiceUnavailable, "No ephemeris kernel bundle is currently loaded.")
	ComputeWorkerFault     = newErr("COMPUTE.WORKER_FAULT", http.StatusInternalServerError, "A compute worker faulted while processing the request.")
	ComputeConvergenceFail = newErr("COMPUTE.CONVERGENCE_FAILED", http.StatusInternalServerError, "The underlying computation failed to converge.")
	ServiceOverloaded      = newErr("SERVICE.OVERLOADED", http.StatusServiceUnavailable, "The worker pool queue is full.")
	ServiceTimeout         = newErr("SERVICE.TIMEOUT", http.StatusServiceUnavailable, "The request exceeded its deadline.")
	ServiceUnavailable     = newErr("SERVICE.UNAVAILABLE", http.StatusServiceUnavailable, "The service is temporarily unavailable.")
	RateLimited            = newErr("RATE.LIMITED", http.StatusTooManyRequests, "Too many requests.")
)

// CacheL2Unavailable is an internal signal only; it is logged and metered
// but never serialized as an HTTP response (§7 fail-open policy).
var CacheL2Unavailable = errors.New("CACHE.L2_UNAVAILABLE")

// As extracts an *Error from err, if any wraps one.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// jplSentinels maps github.com/mshafiee/jpleph's sentinel errors
// (ErrOutsideRange, ErrQuantityNotInEphemeris, ...) onto taxonomy entries.
// The ephemeris package fills it at init through RegisterJPLSentinel, so
// this package does not depend on jpleph directly.
var jplSentinels map[error]*Error

// RegisterJPLSentinel lets the ephemeris package declare which taxonomy
// entry a given jpleph sentinel error maps onto (§4.A/§7). Raw library
// error text never crosses this boundary — only the mapped code does.
func RegisterJPLSentinel(sentinel error, mapped *Error) {
	if jplSentinels == nil {
		jplSentinels = make(map[error]*Error)
	}
	jplSentinels[sentinel] = mapped
}

// FromJPLError maps an error returned by the ephemeris primitive onto the
// taxonomy via the sentinels registered with RegisterJPLSentinel, falling
// back to COMPUTE.WORKER_FAULT for anything unrecognized.
func FromJPLError(err error) *Error {
	for sentinel, mapped := range jplSentinels {
		if errors.Is(err, sentinel) {
			return mapped
		}
	}
	return ComputeWorkerFault
}
