// Package horizon is the ledger gateway client. It talks to a single
// configured Horizon endpoint over its public REST surface and maps the
// gateway's responses onto the wallet's models and error taxonomy.
package horizon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cryppy/wallet-core/models"
)

// Client is safe for concurrent use.
type Client struct {
	baseURL      string
	friendbotURL string
	http         *http.Client
	logger       *logrus.Entry
}

// NewClient builds a gateway client for one endpoint. friendbotURL may be
// empty (public network).
func NewClient(baseURL, friendbotURL string, timeout time.Duration, logger *logrus.Entry) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		friendbotURL: friendbotURL,
		http:         &http.Client{Timeout: timeout},
		logger:       logger,
	}
}

type balanceJSON struct {
	Balance   string `json:"balance"`
	AssetType string `json:"asset_type"`
	AssetCode string `json:"asset_code"`
}

type accountJSON struct {
	ID            string        `json:"id"`
	Sequence      string        `json:"sequence"`
	SubentryCount int64         `json:"subentry_count"`
	Balances      []balanceJSON `json:"balances"`
}

type feeStatsJSON struct {
	MaxFee struct {
		Mode string `json:"mode"`
	} `json:"max_fee"`
	FeeCharged struct {
		P50 string `json:"p50"`
	} `json:"fee_charged"`
}

type transactionJSON struct {
	ID            string    `json:"id"`
	Hash          string    `json:"hash"`
	Ledger        int32     `json:"ledger"`
	SourceAccount string    `json:"source_account"`
	FeeCharged    string    `json:"fee_charged"`
	MemoType      string    `json:"memo_type"`
	Memo          string    `json:"memo"`
	Successful    bool      `json:"successful"`
	CreatedAt     time.Time `json:"created_at"`
}

type operationJSON struct {
	ID              string    `json:"id"`
	TransactionHash string    `json:"transaction_hash"`
	Type            string    `json:"type"`
	From            string    `json:"from"`
	To              string    `json:"to"`
	Amount          string    `json:"amount"`
	AssetType       string    `json:"asset_type"`
	CreatedAt       time.Time `json:"created_at"`
}

type problemJSON struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
	Extras struct {
		ResultCodes struct {
			Transaction string   `json:"transaction"`
			Operations  []string `json:"operations"`
		} `json:"result_codes"`
	} `json:"extras"`
}

// FetchAccount loads the current snapshot of an address. Returns
// ErrAccountNotFound for addresses the ledger has never seen funded.
func (c *Client) FetchAccount(ctx context.Context, address string) (models.AccountSnapshot, error) {
	var acct accountJSON
	err := c.getJSON(ctx, "fetch account", c.baseURL+"/accounts/"+url.PathEscape(address), &acct)
	if err != nil {
		return models.AccountSnapshot{}, err
	}

	sequence, err := strconv.ParseInt(acct.Sequence, 10, 64)
	if err != nil {
		return models.AccountSnapshot{}, &TransportError{Op: "fetch account", Err: fmt.Errorf("unparseable sequence %q", acct.Sequence)}
	}

	snapshot := models.AccountSnapshot{
		AccountID:     acct.ID,
		Sequence:      sequence,
		SubentryCount: acct.SubentryCount,
		Balances:      make([]models.Balance, 0, len(acct.Balances)),
	}
	for _, b := range acct.Balances {
		asset := b.AssetCode
		if b.AssetType == "native" {
			asset = "XLM"
		}
		snapshot.Balances = append(snapshot.Balances, models.Balance{Asset: asset, Amount: b.Balance})
	}
	return snapshot, nil
}

// IsFunded probes whether an address exists on-ledger.
func (c *Client) IsFunded(ctx context.Context, address string) (bool, error) {
	_, err := c.FetchAccount(ctx, address)
	if errors.Is(err, ErrAccountNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FetchFeeStats returns the gateway's recommended per-operation fee in
// stroops: the mode of recently accepted max fees, falling back to the
// median fee charged. Best-effort; callers fall back to a fixed default on
// error.
func (c *Client) FetchFeeStats(ctx context.Context) (int64, error) {
	var stats feeStatsJSON
	if err := c.getJSON(ctx, "fetch fee stats", c.baseURL+"/fee_stats", &stats); err != nil {
		return 0, err
	}
	if fee, err := strconv.ParseInt(stats.MaxFee.Mode, 10, 64); err == nil && fee > 0 {
		return fee, nil
	}
	if fee, err := strconv.ParseInt(stats.FeeCharged.P50, 10, 64); err == nil && fee > 0 {
		return fee, nil
	}
	return 0, &TransportError{Op: "fetch fee stats", Err: errors.New("no usable fee in response")}
}

// Submit posts a signed envelope transport string. A structured refusal
// comes back as *SubmissionError; anything that leaves the outcome unknown
// comes back as *TransportError.
func (c *Client) Submit(ctx context.Context, envelope string) (models.SubmissionResult, error) {
	form := url.Values{"tx": {envelope}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transactions",
		strings.NewReader(form.Encode()))
	if err != nil {
		return models.SubmissionResult{}, &TransportError{Op: "submit", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return models.SubmissionResult{}, &TransportError{Op: "submit", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.SubmissionResult{}, &TransportError{Op: "submit", Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var tx transactionJSON
		if err := json.Unmarshal(body, &tx); err != nil {
			return models.SubmissionResult{}, &TransportError{Op: "submit", Err: fmt.Errorf("unparseable success body: %w", err)}
		}
		fee, _ := strconv.ParseInt(tx.FeeCharged, 10, 64)
		return models.SubmissionResult{Hash: tx.Hash, Ledger: tx.Ledger, Fee: fee}, nil
	}

	// The gateway times out submissions with 504; the envelope may still
	// make it into a ledger, so that is a transport failure, not a refusal.
	if resp.StatusCode >= 500 {
		return models.SubmissionResult{}, &TransportError{Op: "submit",
			Err: fmt.Errorf("gateway status %d", resp.StatusCode)}
	}

	var problem problemJSON
	if err := json.Unmarshal(body, &problem); err != nil {
		return models.SubmissionResult{}, &TransportError{Op: "submit",
			Err: fmt.Errorf("status %d with unparseable body", resp.StatusCode)}
	}
	c.logger.WithFields(logrus.Fields{
		"status":  resp.StatusCode,
		"tx_code": problem.Extras.ResultCodes.Transaction,
	}).Warn("Submission rejected by gateway")
	return models.SubmissionResult{}, &SubmissionError{
		Status:          resp.StatusCode,
		Detail:          problem.Detail,
		TransactionCode: problem.Extras.ResultCodes.Transaction,
		OperationCodes:  problem.Extras.ResultCodes.Operations,
	}
}

// FetchTransactions lists an address's transactions, most recent first.
func (c *Client) FetchTransactions(ctx context.Context, address string, limit int) ([]models.TransactionSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	endpoint := fmt.Sprintf("%s/accounts/%s/transactions?order=desc&limit=%d",
		c.baseURL, url.PathEscape(address), limit)

	var page struct {
		Embedded struct {
			Records []transactionJSON `json:"records"`
		} `json:"_embedded"`
	}
	if err := c.getJSON(ctx, "fetch transactions", endpoint, &page); err != nil {
		return nil, err
	}

	summaries := make([]models.TransactionSummary, 0, len(page.Embedded.Records))
	for _, r := range page.Embedded.Records {
		summaries = append(summaries, models.TransactionSummary{
			ID:            r.ID,
			Hash:          r.Hash,
			Ledger:        r.Ledger,
			SourceAccount: r.SourceAccount,
			FeeCharged:    r.FeeCharged,
			MemoType:      r.MemoType,
			Memo:          r.Memo,
			Successful:    r.Successful,
			CreatedAt:     r.CreatedAt,
		})
	}
	return summaries, nil
}

// FetchOperations lists the operations inside one transaction.
func (c *Client) FetchOperations(ctx context.Context, transactionID string) ([]models.OperationSummary, error) {
	endpoint := c.baseURL + "/transactions/" + url.PathEscape(transactionID) + "/operations"

	var page struct {
		Embedded struct {
			Records []operationJSON `json:"records"`
		} `json:"_embedded"`
	}
	if err := c.getJSON(ctx, "fetch operations", endpoint, &page); err != nil {
		return nil, err
	}

	ops := make([]models.OperationSummary, 0, len(page.Embedded.Records))
	for _, r := range page.Embedded.Records {
		ops = append(ops, models.OperationSummary{
			ID:              r.ID,
			TransactionHash: r.TransactionHash,
			Type:            r.Type,
			From:            r.From,
			To:              r.To,
			Amount:          r.Amount,
			AssetType:       r.AssetType,
			CreatedAt:       r.CreatedAt,
		})
	}
	return ops, nil
}

// FundWithFriendbot asks the test-network faucet to fund an address.
func (c *Client) FundWithFriendbot(ctx context.Context, address string) error {
	if c.friendbotURL == "" {
		return errors.New("horizon: no faucet configured for this network")
	}
	endpoint := c.friendbotURL + "?addr=" + url.QueryEscape(address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &TransportError{Op: "friendbot", Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: "friendbot", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &TransportError{Op: "friendbot", Err: fmt.Errorf("faucet status %d", resp.StatusCode)}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, op, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrAccountNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return &TransportError{Op: op, Err: fmt.Errorf("gateway status %d", resp.StatusCode)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("unparseable response: %w", err)}
	}
	return nil
}
