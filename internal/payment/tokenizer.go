package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dropkickfish/barq-client/internal/httpclient"
)

// CardTokenizer exchanges card details for a single-use token at the payment
// provider's token endpoint, authenticated with the publishable key.
type CardTokenizer struct {
	endpoint string
	key      string
	http     *http.Client
}

// NewCardTokenizer creates a CardTokenizer. hc may be nil.
func NewCardTokenizer(endpoint, publishableKey string, hc *http.Client) *CardTokenizer {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &CardTokenizer{endpoint: endpoint, key: publishableKey, http: hc}
}

type tokenResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Tokenize posts the card as a form. A 4xx reply wraps ErrTokenization;
// transport failures wrap httpclient.ErrNetwork.
func (t *CardTokenizer) Tokenize(ctx context.Context, card CardInput) (string, error) {
	form := url.Values{}
	form.Set("card[name]", card.Name)
	form.Set("card[number]", card.Number)
	form.Set("card[exp_month]", strconv.Itoa(card.ExpMonth))
	form.Set("card[exp_year]", strconv.Itoa(card.ExpYear))
	form.Set("card[cvc]", card.CVC)
	if card.PostalCode != "" {
		form.Set("card[address_zip]", card.PostalCode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(t.key, "")

	resp, err := t.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: tokenize: %v", httpclient.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("%w: read token response: %v", httpclient.ErrNetwork, err)
	}

	var tr tokenResponse
	_ = json.Unmarshal(body, &tr)

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		msg := http.StatusText(resp.StatusCode)
		if tr.Error != nil && tr.Error.Message != "" {
			msg = tr.Error.Message
		}
		return "", fmt.Errorf("%w: %s", ErrTokenization, msg)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", fmt.Errorf("%w: token endpoint status %d", httpclient.ErrNetwork, resp.StatusCode)
	case tr.ID == "":
		return "", fmt.Errorf("%w: no token in response", ErrTokenization)
	}
	return tr.ID, nil
}
