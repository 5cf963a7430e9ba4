package domain

import (
	"context"
	"errors"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound indicates the requested project does not exist
	ErrNotFound = errors.New("project not found")

	// ErrServerOffline indicates the catalog is unreachable
	ErrServerOffline = errors.New("catalog is unreachable")

	// ErrRateLimited indicates the catalog rejected the request due to rate limits
	ErrRateLimited = errors.New("catalog rate limit exceeded")

	// ErrBadResponse indicates the catalog answered with something we could not parse
	ErrBadResponse = errors.New("unexpected catalog response")

	// ErrInstallDisabled indicates install was requested while it is not allowed
	ErrInstallDisabled = errors.New("install is not available right now")

	// ErrNoVersion indicates the selected version index does not exist
	ErrNoVersion = errors.New("no such version")
)

// ErrorKind classifies failures the way the UI presents them
type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	// ErrorNoResults: first page was empty. Terminal until criteria change.
	ErrorNoResults
	// ErrorTransport: network or parse failure. Recoverable by re-trigger.
	ErrorTransport
	// ErrorDetailUnavailable: per-row detail fetch failed
	ErrorDetailUnavailable
	// ErrorIconAbsent: per-row icon missing, rendered as a placeholder
	ErrorIconAbsent
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return "none"
	case ErrorNoResults:
		return "no results"
	case ErrorTransport:
		return "transport"
	case ErrorDetailUnavailable:
		return "detail unavailable"
	case ErrorIconAbsent:
		return "icon absent"
	default:
		return "unknown"
	}
}

// KindOf maps a page-load failure to the kind surfaced to the session owner.
// Every failure of the search collaborator is a transport failure; a nil
// error has no kind.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ErrorNone
	}
	return ErrorTransport
}

// IsCancellation reports whether err came from a cancelled or expired context
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
