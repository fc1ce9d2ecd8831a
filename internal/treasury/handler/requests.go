package handler

import (
	"math/big"
	"strings"
	"time"

	"zkdao/pkg/domain"
	dErrors "zkdao/pkg/domain-errors"
)

// DepositRequest is the HTTP request body for POST /treasury/deposits.
type DepositRequest struct {
	From   string `json:"from"`
	Amount string `json:"amount"`

	parsedFrom   domain.Address
	parsedAmount *big.Int
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *DepositRequest) Validate() error {
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

// WithdrawalRequest is the HTTP request body for POST /treasury/withdrawals
// and POST /treasury/emergency-withdrawal.
type WithdrawalRequest struct {
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`

	parsedRecipient domain.Address
	parsedAmount    *big.Int
}

func (r *WithdrawalRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	var err error
	if r.parsedRecipient, err = domain.ParseAddress(strings.TrimSpace(r.Recipient)); err != nil {
		return err
	}
	r.parsedAmount, err = parseAmount(r.Amount)
	return err
}

// SetDelayRequest is the HTTP request body for PUT /treasury/delay.
type SetDelayRequest struct {
	Seconds int64 `json:"seconds"`

	parsedDelay time.Duration
}

func (r *SetDelayRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Seconds <= 0 {
		return dErrors.New(dErrors.CodeValidation, "seconds must be positive")
	}
	r.parsedDelay = time.Duration(r.Seconds) * time.Second
	return nil
}

// parseAmount parses a positive decimal base-unit amount. Amounts travel as
// strings: 256-bit values do not survive JSON numbers.
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
