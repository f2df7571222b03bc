// Package paymentprovider содержит клиент NOWPayments: создание счёта
// и проверку подписи IPN-уведомлений.
package paymentprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client ходит в REST API NOWPayments.
type Client struct {
	apiKey     string
	ipnSecret  string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент NOWPayments.
func NewClient(apiKey, ipnSecret, apiURL string) *Client {
	return &Client{
		apiKey:     apiKey,
		ipnSecret:  ipnSecret,
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// CreateInvoice создаёт счёт и возвращает ссылку на оплату.
func (c *Client) CreateInvoice(ctx context.Context, reqParams CreateInvoiceRequest) (*CreateInvoiceResponse, error) {
	const op = "paymentprovider.CreateInvoice"
	req, err := c.newRequest(ctx, http.MethodPost, "/invoice", reqParams)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s: unexpected status %s: %s", op, resp.Status, strings.TrimSpace(string(msg)))
	}

	var invoice CreateInvoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&invoice); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if invoice.InvoiceURL == "" {
		return nil, fmt.Errorf("%s: empty invoice_url", op)
	}
	return &invoice, nil
}
