package handler

import (
	"time"

	"zkdao/internal/treasury/models"
)

// WithdrawalResponse is the HTTP shape of a queued withdrawal. Amounts are
// decimal base-unit strings.
type WithdrawalResponse struct {
	ID         uint64    `json:"id"`
	Recipient  string    `json:"recipient"`
	Amount     string    `json:"amount"`
	QueuedAt   time.Time `json:"queued_at"`
	UnlockTime time.Time `json:"unlock_time"`
	Executed   bool      `json:"executed"`
	Cancelled  bool      `json:"cancelled"`
}

// FromWithdrawal converts a domain withdrawal to its response shape.
func FromWithdrawal(w *models.Withdrawal) WithdrawalResponse {
	return WithdrawalResponse{
		ID:         uint64(w.ID),
		Recipient:  w.Recipient.String(),
		Amount:     w.Amount.String(),
		QueuedAt:   w.QueuedAt,
		UnlockTime: w.UnlockTime,
		Executed:   w.Executed,
		Cancelled:  w.Cancelled,
	}
}

// FromWithdrawals converts a slice of domain withdrawals.
func FromWithdrawals(ws []*models.Withdrawal) []WithdrawalResponse {
	out := make([]WithdrawalResponse, 0, len(ws))
	for _, w := range ws {
		out = append(out, FromWithdrawal(w))
	}
	return out
}

// BalanceResponse is the HTTP response for GET /treasury/balance.
type BalanceResponse struct {
	Balance string `json:"balance"`
	Paused  bool   `json:"paused"`
}

// QueueWithdrawalResponse is the HTTP response for POST /treasury/withdrawals.
type QueueWithdrawalResponse struct {
	ID uint64 `json:"id"`
}
