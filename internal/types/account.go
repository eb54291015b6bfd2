package types

// Account is one brokerage trading account as returned by the accounts
// endpoint.
type Account struct {
	// ID is the brokerage account identifier.
	ID string `json:"accountId" yaml:"account_id"`
	// Type is the account classification (e.g. "LIVE", "DEMO").
	Type string `json:"accountType" yaml:"account_type"`
	// Currency is the account's base currency.
	Currency string `json:"currency" yaml:"currency"`
	// Cash is the available cash balance.
	Cash float64 `json:"cash" yaml:"cash"`
}
