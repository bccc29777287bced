package models

// PaymentRequest is one payment attempt as handed in by the presentation
// layer. Amount is a decimal string with up to 7 fractional digits.
type PaymentRequest struct {
	From   string `json:"from" binding:"required"`
	To     string `json:"to" binding:"required"`
	Amount string `json:"amount" binding:"required"`
	Memo   string `json:"memo,omitempty"`
}

// SubmissionResult is the gateway's acknowledgement of an accepted
// transaction.
type SubmissionResult struct {
	Hash   string `json:"hash"`
	Ledger int32  `json:"ledger"`
	Fee    int64  `json:"fee_charged"`
}
