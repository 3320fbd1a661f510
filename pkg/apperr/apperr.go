// Package apperr defines the failure taxonomy shared by the injection subsystem.
//
// Every public operation of the injector returns either success or an *Error
// whose Kind names one of the categories below. Callers match on kinds with
// errors.Is against the exported sentinels:
//
//	if errors.Is(err, apperr.ErrUnsupportedInput) { ... }
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindTranscodingFailed
	KindFileOperationFailed
	KindAssetNotFound
	KindManifest
	KindUnsupportedInput
	KindBackupFailed
	KindAgentReloadFailed
)

func (k Kind) String() string {
	switch k {
	case KindTranscodingFailed:
		return "transcoding failed"
	case KindFileOperationFailed:
		return "file operation failed"
	case KindAssetNotFound:
		return "asset not found"
	case KindManifest:
		return "manifest error"
	case KindUnsupportedInput:
		return "unsupported input"
	case KindBackupFailed:
		return "backup failed"
	case KindAgentReloadFailed:
		return "agent reload failed"
	default:
		return "unknown error"
	}
}

// Sentinels for errors.Is matching. They carry only a Kind.
var (
	ErrTranscodingFailed   = &Error{Kind: KindTranscodingFailed}
	ErrFileOperationFailed = &Error{Kind: KindFileOperationFailed}
	ErrAssetNotFound       = &Error{Kind: KindAssetNotFound}
	ErrManifest            = &Error{Kind: KindManifest}
	ErrUnsupportedInput    = &Error{Kind: KindUnsupportedInput}
	ErrBackupFailed        = &Error{Kind: KindBackupFailed}
	ErrAgentReloadFailed   = &Error{Kind: KindAgentReloadFailed}
)

// Error is a typed failure. Reason is a short human description, Path is set
// when the failure concerns a specific file, Err is the underlying cause.
type Error struct {
	Kind   Kind
	Reason string
	Path   string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" (%s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an *Error of kind k.
func New(k Kind, reason string, err error) *Error {
	return &Error{Kind: k, Reason: reason, Err: err}
}

// TranscodingFailed reports that no conversion could be completed.
func TranscodingFailed(reason string, err error) error {
	return New(KindTranscodingFailed, reason, err)
}

// FileOperationFailed reports a copy, rename, tag or delete failure.
func FileOperationFailed(reason string, err error) error {
	return New(KindFileOperationFailed, reason, err)
}

// AssetNotFound reports that path does not exist.
func AssetNotFound(path string) error {
	return &Error{Kind: KindAssetNotFound, Reason: "no such asset", Path: path}
}

// Manifest reports a catalog read, parse or write failure.
func Manifest(reason string, err error) error {
	return New(KindManifest, reason, err)
}

// UnsupportedInput reports a source that cannot be converted at all.
func UnsupportedInput(reason string, err error) error {
	return New(KindUnsupportedInput, reason, err)
}

// BackupFailed reports a backup or restore failure.
func BackupFailed(reason string, err error) error {
	return New(KindBackupFailed, reason, err)
}

// AgentReloadFailed reports an unexpected reload command failure.
func AgentReloadFailed(reason string, err error) error {
	return New(KindAgentReloadFailed, reason, err)
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
