package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const requestTimeout = 15 * time.Second

// ErrTimeout marks a gateway call that did not complete in time. It is
// retryable, unlike a rejection.
var ErrTimeout = errors.New("payment gateway timeout")

// GatewayError is a failure reported by the payment provider itself.
type GatewayError struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway: %s: %s", e.Type, e.Message)
}

// InvalidRequest reports whether the gateway rejected the request as
// malformed, which the caller can surface as a client error.
func (e *GatewayError) InvalidRequest() bool {
	return e.Type == "invalid_request_error"
}

// LineItem is one purchasable row on the hosted payment page.
type LineItem struct {
	Name       string
	Image      string
	UnitAmount int64 // minor currency units
	Quantity   int64
}

// Session is the provider-hosted checkout transaction the client is
// redirected to.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Client talks to a Stripe-style checkout sessions API.
type Client struct {
	APIKey     string
	BaseURL    string
	SuccessURL string
	CancelURL  string
	HTTPClient *http.Client
}

func NewClient(apiKey, baseURL, storefrontURL string) *Client {
	return &Client{
		APIKey:     apiKey,
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		SuccessURL: storefrontURL + "/success",
		CancelURL:  storefrontURL + "/cart",
		HTTPClient: &http.Client{Timeout: requestTimeout},
	}
}

// MinorUnits converts a decimal price to integer minor currency units.
// Rounding, never truncation: 19.999 becomes 2000, not 1999.
func MinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

// CreateSession creates a hosted checkout session for the given line items.
func (c *Client) CreateSession(ctx context.Context, items []LineItem) (*Session, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("success_url", c.SuccessURL)
	form.Set("cancel_url", c.CancelURL)

	for i, item := range items {
		prefix := "line_items[" + strconv.Itoa(i) + "]"
		form.Set(prefix+"[quantity]", strconv.FormatInt(item.Quantity, 10))
		form.Set(prefix+"[price_data][currency]", "usd")
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmount, 10))
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		if item.Image != "" {
			form.Set(prefix+"[price_data][product_data][images][0]", item.Image)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return nil, ErrTimeout
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var body struct {
			Error GatewayError `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error.Message == "" {
			return nil, &GatewayError{
				Type:       "api_error",
				Message:    "gateway returned status " + strconv.Itoa(resp.StatusCode),
				StatusCode: resp.StatusCode,
			}
		}
		body.Error.StatusCode = resp.StatusCode
		return nil, &body.Error
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, err
	}
	return &session, nil
}
