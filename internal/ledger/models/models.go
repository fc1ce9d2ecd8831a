// Package models holds the token ledger domain types. Amounts are base
// units (18 decimals) carried as big.Int; uint64 overflows at realistic
// supplies.
package models

import (
	"math/big"
	"time"

	"zkdao/pkg/domain"
)

// Account is the per-address balance and delegation record.
type Account struct {
	Address domain.Address
	Balance *big.Int
	// Delegate is the address whose voting power this account's balance
	// backs. Zero means undelegated: the balance carries no voting power.
	Delegate domain.Address
}

// NewAccount returns an account with a zero balance and no delegate.
func NewAccount(addr domain.Address) *Account {
	return &Account{Address: addr, Balance: new(big.Int)}
}

// Checkpoint is one entry in an account's voting-power history. Timestamps
// within a history are strictly increasing; a write at the latest entry's
// timestamp overwrites it in place.
type Checkpoint struct {
	Timestamp time.Time
	Votes     *big.Int
}

// TokensPerUnit converts whole tokens to base units.
var TokensPerUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// DefaultMaxSupply is the mint cap: one million whole tokens.
var DefaultMaxSupply = new(big.Int).Mul(big.NewInt(1_000_000), TokensPerUnit)

// WholeTokens converts a whole-token count into base units.
func WholeTokens(n uint64) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(n), TokensPerUnit)
}
