package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"satchmo-store/internal/config"
	"strings"
	"time"
)

// AIM response codes.
const (
	AIMApproved = "1"
	AIMDeclined = "2"
	AIMError    = "3"
	AIMHeld     = "4"
)

const aimDelimiter = "|"

type AuthorizenetClient interface {
	// Submit posts an AIM transaction. Credentials and delimiter fields are added by the client.
	Submit(ctx context.Context, live bool, login, tranKey string, fields url.Values) (*AIMResponse, error)
}

type AIMResponse struct {
	ResponseCode  string
	ReasonCode    string
	ReasonText    string
	AuthCode      string
	TransactionID string
	Raw           string
}

func (r *AIMResponse) Approved() bool {
	return r.ResponseCode == AIMApproved
}

type authorizenetClientImpl struct {
	httpClient    *http.Client
	connectionURL string
	testURL       string
}

func NewAuthorizenetClient(cfg *config.Authorizenet) AuthorizenetClient {
	return &authorizenetClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		connectionURL: cfg.ConnectionURL,
		testURL:       cfg.TestURL,
	}
}

func (c *authorizenetClientImpl) Submit(ctx context.Context, live bool, login, tranKey string, fields url.Values) (*AIMResponse, error) {
	form := url.Values{}
	for k, v := range fields {
		form[k] = v
	}
	form.Set("x_login", login)
	form.Set("x_tran_key", tranKey)
	form.Set("x_version", "3.1")
	form.Set("x_delim_data", "TRUE")
	form.Set("x_delim_char", aimDelimiter)
	form.Set("x_relay_response", "FALSE")

	endpoint := c.testURL
	if live {
		endpoint = c.connectionURL
	} else {
		form.Set("x_test_request", "TRUE")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read aim response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("authorizenet error %d: %s", resp.StatusCode, string(body))
	}

	return ParseAIMResponse(string(body))
}

// ParseAIMResponse splits a delimited AIM response. Only the leading fields are used.
func ParseAIMResponse(raw string) (*AIMResponse, error) {
	raw = strings.TrimSpace(raw)
	parts := strings.Split(raw, aimDelimiter)
	if len(parts) < 7 {
		return nil, fmt.Errorf("malformed aim response: %q", raw)
	}

	return &AIMResponse{
		ResponseCode:  parts[0],
		ReasonCode:    parts[2],
		ReasonText:    parts[3],
		AuthCode:      parts[4],
		TransactionID: parts[6],
		Raw:           raw,
	}, nil
}
