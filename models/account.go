package models

// Balance is one asset line of an on-ledger account. Asset is "XLM" for the
// native asset, otherwise the asset code reported by the gateway. Amount is
// the gateway's decimal string, kept as-is to avoid float precision loss.
type Balance struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

// AccountSnapshot is the observed state of one address at a point in time.
// It is fetched fresh before every transaction build and never cached across
// submissions: a stale sequence number makes the next transaction
// permanently rejected.
type AccountSnapshot struct {
	AccountID     string    `json:"account_id"`
	Sequence      int64     `json:"sequence"`
	SubentryCount int64     `json:"subentry_count"`
	Balances      []Balance `json:"balances"`
}

// NativeBalance returns the XLM balance string, or "0" if the account has
// no native line (which Horizon never reports, but callers should not
// crash on it).
func (s AccountSnapshot) NativeBalance() string {
	for _, b := range s.Balances {
		if b.Asset == "XLM" {
			return b.Amount
		}
	}
	return "0"
}
