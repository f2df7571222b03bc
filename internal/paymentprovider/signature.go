package paymentprovider

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSignature возвращается, если подпись IPN не совпала.
var ErrInvalidSignature = errors.New("invalid ipn signature")

// SignatureHeader заголовок с подписью IPN.
const SignatureHeader = "x-nowpayments-sig"

// VerifyIPN проверяет подпись и разбирает тело IPN.
func (c *Client) VerifyIPN(body []byte, signature string) (*IPNPayload, error) {
	const op = "paymentprovider.VerifyIPN"
	if c.ipnSecret == "" || signature == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}

	expected, err := Sign(body, c.ipnSecret)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	got, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(signature)))
	if err != nil || !hmac.Equal(expected, got) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload IPNPayload
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &payload, nil
}

// Sign считает HMAC-SHA512 по JSON тела с рекурсивно отсортированными ключами.
func Sign(body []byte, secret string) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	// ключи map кодируются отсортированными
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(bytes.TrimRight(buf.Bytes(), "\n"))
	return mac.Sum(nil), nil
}
