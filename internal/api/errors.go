package api

import "fmt"

// The error types below mirror how failures surface to the user: submission
// failures ask for a resubmit, lookup failures render as "session may have
// expired", auth failures route back to login, status failures show a
// transient notice. None of them are retried by the client.

// SubmissionError reports that creating a report or reply failed.
type SubmissionError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: backend returned status %d", e.Op, e.StatusCode)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// LookupError reports that a secret key was invalid or a report was not
// found. The view renders this as a possibly expired session, never as an
// empty thread.
type LookupError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: not found (status %d)", e.Op, e.StatusCode)
}

func (e *LookupError) Unwrap() error { return e.Err }

// AuthError reports an identity-provider failure or an expired staff session.
type AuthError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: unauthorized (status %d)", e.Op, e.StatusCode)
}

func (e *AuthError) Unwrap() error { return e.Err }

// StatusUpdateError reports that the backend rejected a status change.
type StatusUpdateError struct {
	ReportID   string
	StatusCode int
	Err        error
}

func (e *StatusUpdateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("update status of %s: %v", e.ReportID, e.Err)
	}
	return fmt.Sprintf("update status of %s: backend returned status %d", e.ReportID, e.StatusCode)
}

func (e *StatusUpdateError) Unwrap() error { return e.Err }

// TransportError is a generic network or protocol failure.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
