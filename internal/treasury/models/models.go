// Package models defines the treasury's timelocked withdrawal records.
package models

import (
	"math/big"
	"time"

	"zkdao/pkg/domain"
)

// Withdrawal is a queued treasury payout. Executed and Cancelled are a
// one-way ratchet: each flips false -> true at most once and they are
// mutually exclusive.
type Withdrawal struct {
	ID         domain.WithdrawalID
	Recipient  domain.Address
	Amount     *big.Int
	QueuedAt   time.Time
	UnlockTime time.Time
	Executed   bool
	Cancelled  bool
}

// Pending reports whether the withdrawal is still waiting to be executed.
func (w *Withdrawal) Pending() bool {
	return !w.Executed && !w.Cancelled
}
