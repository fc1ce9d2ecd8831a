// Package domainerrors defines the coded error type shared by every service
// and transport layer. Callers branch on codes, never on message text.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error category. Codes are part of the API surface: they
// appear verbatim in HTTP error bodies and in audit records.
type Code string

const (
	// Generic codes.
	CodeBadRequest   Code = "bad_request"
	CodeValidation   Code = "validation_error"
	CodeInvalidInput Code = "invalid_input"
	CodeUnauthorized Code = "unauthorized"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal_error"

	// Membership and proof codes.
	CodeNotVerified         Code = "not_verified"
	CodeInvalidProof        Code = "invalid_proof"
	CodeInvalidPublicInputs Code = "invalid_public_inputs"
	CodeProofAlreadyUsed    Code = "proof_already_used"

	// Governance codes.
	CodeProposalNotActive Code = "proposal_not_active"
	CodeProposalNotPassed Code = "proposal_not_passed"
	CodeAlreadyVoted      Code = "already_voted"
	CodeInvalidChoice     Code = "invalid_choice"
	CodeFutureTimepoint   Code = "future_timepoint"

	// Treasury codes.
	CodeTargetNotAllowed   Code = "target_not_allowed"
	CodeInsufficientFunds  Code = "insufficient_funds"
	CodeTimelockNotExpired Code = "timelock_not_expired"
	CodeAlreadyExecuted    Code = "already_executed"
	CodeAlreadyCancelled   Code = "already_cancelled"
	CodePaused             Code = "paused"
	CodeReentrantCall      Code = "reentrant_call"

	// Value validation codes.
	CodeInvalidAddress Code = "invalid_address"
	CodeInvalidAmount  Code = "invalid_amount"
)

// Error is a domain error with a stable code and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message while preserving the cause for
// errors.Is / errors.As chains. Wrapping nil returns nil.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from an error chain. Unrecognized errors map to
// CodeInternal so that raw failures never leak category information.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the domain message from an error chain, or "" when the
// error carries no domain code.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}

// ToHTTPStatus maps a code to its HTTP status. Every code must map
// deliberately; unknown codes are treated as internal.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodeInvalidInput, CodeInvalidChoice,
		CodeInvalidAddress, CodeInvalidAmount, CodeInvalidPublicInputs,
		CodeFutureTimepoint:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeNotVerified, CodeInvalidProof:
		return http.StatusUnauthorized
	case CodeTargetNotAllowed:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeProofAlreadyUsed, CodeAlreadyVoted,
		CodeProposalNotActive, CodeProposalNotPassed,
		CodeInsufficientFunds, CodeTimelockNotExpired,
		CodeAlreadyExecuted, CodeAlreadyCancelled, CodePaused,
		CodeReentrantCall:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
