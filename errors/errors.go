// Package errors defines the closed error taxonomy shared by every
// component of the trust core, so that callers across package boundaries
// can inspect failures the same way regardless of which component raised
// them.
package errors

import (
	"errors"
	"fmt"
)

// Kind is a coarse category for a TrustError. The set is closed: every
// component in this module raises one of these kinds, never a bare error
// for a condition the spec names.
type Kind int

const (
	MalformedInput Kind = iota
	InvalidDid
	MethodNotSupported
	NotFound
	NetworkError
	Timeout
	Cancelled
	InvalidSignature
	MalformedCredential
	Expired
	NotYetValid
	IssuerNotResolvable
	KeyNotFound
	PurposeMismatch
	Revoked
	Suspended
	StatusUnavailable
	ListFull
	IndexOutOfRange
	InvalidStatusList
	CorruptState
	KmsUnavailable
	AccessDenied
	LogBusy
	InternalError
)

var kindNames = map[Kind]string{
	MalformedInput:      "MalformedInput",
	InvalidDid:          "InvalidDid",
	MethodNotSupported:  "MethodNotSupported",
	NotFound:            "NotFound",
	NetworkError:        "NetworkError",
	Timeout:             "Timeout",
	Cancelled:           "Cancelled",
	InvalidSignature:    "InvalidSignature",
	MalformedCredential: "MalformedCredential",
	Expired:             "Expired",
	NotYetValid:         "NotYetValid",
	IssuerNotResolvable: "IssuerNotResolvable",
	KeyNotFound:         "KeyNotFound",
	PurposeMismatch:     "PurposeMismatch",
	Revoked:             "Revoked",
	Suspended:           "Suspended",
	StatusUnavailable:   "StatusUnavailable",
	ListFull:            "ListFull",
	IndexOutOfRange:     "IndexOutOfRange",
	InvalidStatusList:   "InvalidStatusList",
	CorruptState:        "CorruptState",
	KmsUnavailable:      "KmsUnavailable",
	AccessDenied:        "AccessDenied",
	LogBusy:             "LogBusy",
	InternalError:       "InternalError",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "UnknownKind"
}

// TrustError is the concrete error type returned across every component
// boundary in this module.
type TrustError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *TrustError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *TrustError) Unwrap() error {
	return e.Cause
}

// New creates a TrustError of the given kind.
func New(kind Kind, msg string, args ...interface{}) error {
	return &TrustError{Kind: kind, Message: fmt.Sprintf(msg, args...)}
}

// Wrap creates a TrustError of the given kind, carrying cause as the
// underlying error reachable via errors.Unwrap.
func Wrap(kind Kind, cause error, msg string, args ...interface{}) error {
	return &TrustError{Kind: kind, Message: fmt.Sprintf(msg, args...), Cause: cause}
}

// Is reports whether err is a *TrustError of the given kind. It unwraps,
// so a TrustError wrapped by other errors.Wrap-style callers is still
// found.
func Is(err error, kind Kind) bool {
	var te *TrustError
	if errors.As(err, &te) {
		return te.Kind == kind
	}
	return false
}

// KindOf returns the Kind of err if it is (or wraps) a *TrustError, and
// ok=false otherwise.
func KindOf(err error) (kind Kind, ok bool) {
	var te *TrustError
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return InternalError, false
}

func MalformedInputError(msg string, args ...interface{}) error {
	return New(MalformedInput, msg, args...)
}

func InvalidDidError(msg string, args ...interface{}) error {
	return New(InvalidDid, msg, args...)
}

func MethodNotSupportedError(msg string, args ...interface{}) error {
	return New(MethodNotSupported, msg, args...)
}

func NotFoundError(msg string, args ...interface{}) error {
	return New(NotFound, msg, args...)
}

func NetworkErrorf(msg string, args ...interface{}) error {
	return New(NetworkError, msg, args...)
}

func TimeoutError(msg string, args ...interface{}) error {
	return New(Timeout, msg, args...)
}

func CancelledError(msg string, args ...interface{}) error {
	return New(Cancelled, msg, args...)
}

func InvalidSignatureError(msg string, args ...interface{}) error {
	return New(InvalidSignature, msg, args...)
}

func MalformedCredentialError(msg string, args ...interface{}) error {
	return New(MalformedCredential, msg, args...)
}

func ExpiredError(msg string, args ...interface{}) error {
	return New(Expired, msg, args...)
}

func NotYetValidError(msg string, args ...interface{}) error {
	return New(NotYetValid, msg, args...)
}

func IssuerNotResolvableError(msg string, args ...interface{}) error {
	return New(IssuerNotResolvable, msg, args...)
}

func KeyNotFoundError(msg string, args ...interface{}) error {
	return New(KeyNotFound, msg, args...)
}

func PurposeMismatchError(msg string, args ...interface{}) error {
	return New(PurposeMismatch, msg, args...)
}

func RevokedError(msg string, args ...interface{}) error {
	return New(Revoked, msg, args...)
}

func SuspendedError(msg string, args ...interface{}) error {
	return New(Suspended, msg, args...)
}

func StatusUnavailableError(msg string, args ...interface{}) error {
	return New(StatusUnavailable, msg, args...)
}

func ListFullError(msg string, args ...interface{}) error {
	return New(ListFull, msg, args...)
}

func IndexOutOfRangeError(msg string, args ...interface{}) error {
	return New(IndexOutOfRange, msg, args...)
}

func InvalidStatusListError(msg string, args ...interface{}) error {
	return New(InvalidStatusList, msg, args...)
}

func CorruptStateError(msg string, args ...interface{}) error {
	return New(CorruptState, msg, args...)
}

func KmsUnavailableError(msg string, args ...interface{}) error {
	return New(KmsUnavailable, msg, args...)
}

func AccessDeniedError(msg string, args ...interface{}) error {
	return New(AccessDenied, msg, args...)
}

func LogBusyError(msg string, args ...interface{}) error {
	return New(LogBusy, msg, args...)
}

func InternalErrorf(msg string, args ...interface{}) error {
	return New(InternalError, msg, args...)
}

// Retryable reports whether the given Kind is in the "recover locally"
// policy set (spec §7): NetworkError, Timeout, KmsUnavailable, LogBusy.
func Retryable(kind Kind) bool {
	switch kind {
	case NetworkError, Timeout, KmsUnavailable, LogBusy:
		return true
	default:
		return false
	}
}
