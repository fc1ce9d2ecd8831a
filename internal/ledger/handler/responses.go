package handler

// AccountResponse is the HTTP response for GET /ledger/accounts/{address}.
// Amounts are decimal base-unit strings.
type AccountResponse struct {
	Address  string `json:"address"`
	Balance  string `json:"balance"`
	Delegate string `json:"delegate,omitempty"`
	Votes    string `json:"votes"`
}

// VotesResponse is the HTTP response for GET /ledger/accounts/{address}/votes.
type VotesResponse struct {
	Address string `json:"address"`
	Votes   string `json:"votes"`
}

// SupplyResponse is the HTTP response for GET /ledger/supply.
type SupplyResponse struct {
	Supply string `json:"supply"`
}
