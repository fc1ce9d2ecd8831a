package handler

import (
	"math/big"
	"strings"

	"zkdao/pkg/domain"
	dErrors "zkdao/pkg/domain-errors"
)

// MintRequest is the HTTP request body for POST /ledger/mint.
type MintRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`

	parsedTo     domain.Address
	parsedAmount *big.Int
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *MintRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	var err error
	if r.parsedTo, err = domain.ParseAddress(strings.TrimSpace(r.To)); err != nil {
		return err
	}
	r.parsedAmount, err = parseAmount(r.Amount)
	return err
}

// BurnRequest is the HTTP request body for POST /ledger/burn.
type BurnRequest struct {
	From   string `json:"from"`
	Amount string `json:"amount"`

	parsedFrom   domain.Address
	parsedAmount *big.Int
}

func (r *BurnRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	var err error
	if r.parsedFrom, err = domain.ParseAddress(strings.TrimSpace(r.From)); err != nil {
		return err
	}
	r.parsedAmount, err = parseAmount(r.Amount)
	return err
}

// TransferRequest is the HTTP request body for POST /ledger/transfer.
type TransferRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`

	parsedTo     domain.Address
	parsedAmount *big.Int
}

func (r *TransferRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	var err error
	if r.parsedTo, err = domain.ParseAddress(strings.TrimSpace(r.To)); err != nil {
		return err
	}
	r.parsedAmount, err = parseAmount(r.Amount)
	return err
}

// DelegateRequest is the HTTP request body for POST /ledger/delegate.
type DelegateRequest struct {
	Delegatee string `json:"delegatee"`

	parsedDelegatee domain.Address
}

func (r *DelegateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	var err error
	r.parsedDelegatee, err = domain.ParseAddress(strings.TrimSpace(r.Delegatee))
	return err
}

// SetAutoDelegationRequest is the HTTP request body for PUT /ledger/auto-delegation.
type SetAutoDelegationRequest struct {
	Enabled bool `json:"enabled"`
}

func (r *SetAutoDelegationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}

// parseAmount parses a decimal base-unit amount. Amounts travel as strings:
// 256-bit values do not survive JSON numbers.
func parseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "amount is required")
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "amount must be a decimal integer")
	}
	if n.Sign() <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidAmount, "amount must be positive")
	}
	return n, nil
}
