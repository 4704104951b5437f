// Package errors provides error handling for componentdoc.
//
// It re-exports github.com/cockroachdb/errors so callers get stack traces,
// wrapping, and user-facing hints from a single import, and it defines the
// error kinds a documentation run can fail with.
//
// Usage:
//
//	if err := extract(); err != nil {
//	    return errors.Wrap(err, "extract archive")
//	}
//
//	if errors.Is(err, errors.ErrPathFormat) {
//	    fmt.Println(errors.FlattenHints(err))
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is           = crdb.Is
	IsAny        = crdb.IsAny
	As           = crdb.As
	Unwrap       = crdb.Unwrap
	UnwrapAll    = crdb.UnwrapAll
	GetAllHints  = crdb.GetAllHints
	FlattenHints = crdb.FlattenHints
)

// Error kinds a run can fail with. Use errors.Is to test for them; every
// constructor below marks its result with exactly one kind.
var (
	// ErrPathFormat means the locator uses a Windows drive-letter path.
	ErrPathFormat = New("unsupported path format")

	// ErrNotFound means a local locator does not exist.
	ErrNotFound = New("not found")

	// ErrDownload means a remote archive could not be fetched.
	ErrDownload = New("download failed")

	// ErrExtraction means an archive could not be unpacked.
	ErrExtraction = New("extraction failed")

	// ErrNotADirectory means a non-archive locator is not a directory.
	ErrNotADirectory = New("not a directory")

	// ErrContract means a stage read or wrote fields it did not declare.
	ErrContract = New("stage contract violation")

	// ErrStorageUnavailable means no storage collaborator is configured.
	ErrStorageUnavailable = New("storage unavailable")
)

// PathFormat reports a Windows-style locator. The hint tells the user how
// to make the component reachable from a POSIX host.
func PathFormat(path string) error {
	err := Mark(Newf("%q looks like a Windows path", path), ErrPathFormat)
	return WithHint(err, "copy the component to a shared location and pass a POSIX path or an http(s) URL instead")
}

// NotFound reports a local locator that does not exist.
func NotFound(path string) error {
	return Mark(Newf("%q does not exist", path), ErrNotFound)
}

// Download reports a failed fetch of url.
func Download(url string, cause error) error {
	return Mark(Wrapf(cause, "download %s", url), ErrDownload)
}

// Extraction reports a failed unpack of archive.
func Extraction(archive string, cause error) error {
	return Mark(Wrapf(cause, "extract %s", archive), ErrExtraction)
}

// NotADirectory reports a non-archive locator that is not a directory.
func NotADirectory(path string) error {
	return Mark(Newf("%q is not a directory", path), ErrNotADirectory)
}

// Contract reports a stage that violated its declared field contract.
func Contract(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrContract)
}
