package domain

import (
	"strconv"

	dErrors "zkdao/pkg/domain-errors"
)

// ProposalID identifies a governance proposal. IDs are assigned in creation
// order starting at 1; zero is never a valid ID.
type ProposalID uint64

// WithdrawalID identifies a queued treasury withdrawal. Same numbering rules
// as ProposalID.
type WithdrawalID uint64

// ParseProposalID constructs a ProposalID from external input.
//
// Errors: returns CodeInvalidInput when the value is empty, non-numeric, or
// zero.
func ParseProposalID(s string) (ProposalID, error) {
	n, err := parseSequenceID(s)
	if err != nil {
		return 0, err
	}
	return ProposalID(n), nil
}

// ParseWithdrawalID constructs a WithdrawalID from external input.
//
// Errors: returns CodeInvalidInput when the value is empty, non-numeric, or
// zero.
func ParseWithdrawalID(s string) (WithdrawalID, error) {
	n, err := parseSequenceID(s)
	if err != nil {
		return 0, err
	}
	return WithdrawalID(n), nil
}

func parseSequenceID(s string) (uint64, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "id must be a positive integer")
	}
	if n == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "id 0 is reserved")
	}
	return n, nil
}

func (id ProposalID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

func (id WithdrawalID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}
