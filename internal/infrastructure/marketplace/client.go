package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"deploybot/internal/domain/entity"
	"deploybot/internal/domain/repository"
	"deploybot/internal/infrastructure/metrics"
)

// Client is the HTTP boundary to the remote compute marketplace. It submits
// rendered manifests and queries the escrow balance; everything beyond that
// contract (matching, leases, settlement) is the marketplace's business.
// No retries — a failed call surfaces as an error.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) repository.MarketplaceClient {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) SubmitManifest(ctx context.Context, manifest string) (repository.LeaseReceipt, error) {
	payload, err := json.Marshal(map[string]string{"manifest": manifest})
	if err != nil {
		return repository.LeaseReceipt{}, fmt.Errorf("marshal submit payload: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/v1/deployments", payload)
	if err != nil {
		metrics.IncSubmitRequest("error")
		return repository.LeaseReceipt{}, fmt.Errorf("submit manifest: %w", err)
	}

	var receipt repository.LeaseReceipt
	if err := json.Unmarshal(body, &receipt); err != nil {
		metrics.IncSubmitRequest("error")
		return repository.LeaseReceipt{}, fmt.Errorf("decode lease receipt: %w", err)
	}
	metrics.IncSubmitRequest("ok")
	return receipt, nil
}

func (c *Client) GetBalance(ctx context.Context) (repository.Balance, error) {
	body, err := c.do(ctx, http.MethodGet, "/v1/balance", nil)
	if err != nil {
		return repository.Balance{}, fmt.Errorf("get balance: %w", err)
	}

	// The marketplace reports balances in micro-units of the pricing token.
	var raw struct {
		Micro int64 `json:"micro"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return repository.Balance{}, fmt.Errorf("decode balance: %w", err)
	}

	return repository.Balance{
		Token:  entity.PricingToken,
		Amount: FormatMicroUnits(raw.Micro),
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewBuffer(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.IncError("marketplace", "http_do")
		return nil, fmt.Errorf("make request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("close body err: %s", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.IncError("marketplace", fmt.Sprintf("api_error_%d", resp.StatusCode))
		return nil, fmt.Errorf("marketplace api error: %d - %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// FormatMicroUnits renders a micro-unit balance as a decimal token amount
// with trailing zeros trimmed, e.g. 15250000 -> "15.25", 6000000 -> "6".
func FormatMicroUnits(micro int64) string {
	negative := micro < 0
	if negative {
		micro = -micro
	}

	whole := micro / 1_000_000
	frac := micro % 1_000_000

	out := fmt.Sprintf("%d", whole)
	if frac > 0 {
		fracStr := strings.TrimRight(fmt.Sprintf("%06d", frac), "0")
		out = out + "." + fracStr
	}
	if negative {
		out = "-" + out
	}
	return out
}
