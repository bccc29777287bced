// Package pricing fetches a display-only XLM/USD rate. Best-effort by
// design: a missing price must never block a wallet flow.
package pricing

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3"

type Client struct {
	baseURL string
	http    *http.Client
	logger  *logrus.Entry
}

func NewClient(logger *logrus.Entry) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

// NewClientWithBaseURL exists for tests against a local server.
func NewClientWithBaseURL(baseURL string, logger *logrus.Entry) *Client {
	c := NewClient(logger)
	c.baseURL = baseURL
	return c
}

type priceResponse struct {
	Stellar struct {
		USD float64 `json:"usd"`
	} `json:"stellar"`
}

// XLMUSD returns the current XLM price in USD, or 0 on any failure.
func (c *Client) XLMUSD(ctx context.Context) float64 {
	endpoint := c.baseURL + "/simple/price?ids=stellar&vs_currencies=usd"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WithError(err).Debug("Price fetch failed")
		return 0
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.logger.WithField("status", resp.StatusCode).Debug("Price fetch failed")
		return 0
	}
	var price priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&price); err != nil {
		return 0
	}
	return price.Stellar.USD
}
