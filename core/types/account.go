package types

// Account is a fund-holding ledger record. Balances are denominated in the
// platform's base unit and never go negative; all mutations flow through the
// state manager's checked transfer primitive.
type Account struct {
	Balance uint64 `json:"balance"`
	Nonce   uint64 `json:"nonce"`
}
