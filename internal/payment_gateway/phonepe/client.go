package phonepe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the PhonePe pay-page API.
type Client struct {
	httpClient *http.Client
	apiURL     string
	merchantID string
	saltKey    string
	saltIndex  string
}

func NewClient(apiURL, merchantID, saltKey, saltIndex string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiURL:     apiURL,
		merchantID: merchantID,
		saltKey:    saltKey,
		saltIndex:  saltIndex,
	}
}

func (c *Client) MerchantID() string {
	return c.merchantID
}

// CreatePayment signs and submits a pay request and returns the redirect
// URL the member's browser must navigate to.
func (c *Client) CreatePayment(ctx context.Context, reqData PayRequest) (*PayResult, error) {
	if reqData.MerchantID == "" {
		reqData.MerchantID = c.merchantID
	}

	payloadBytes, err := json.Marshal(reqData)
	if err != nil {
		return nil, fmt.Errorf("phonepe: failed to marshal pay request: %w", err)
	}
	base64Payload := base64.StdEncoding.EncodeToString(payloadBytes)

	bodyBytes, err := json.Marshal(map[string]string{"request": base64Payload})
	if err != nil {
		return nil, fmt.Errorf("phonepe: failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("phonepe: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-VERIFY", SignRequest(base64Payload, c.saltKey, c.saltIndex))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("phonepe: failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("phonepe: unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var payResp PayResponse
	if err := json.NewDecoder(resp.Body).Decode(&payResp); err != nil {
		return nil, fmt.Errorf("phonepe: failed to decode response: %w", err)
	}

	if !payResp.Success {
		return nil, fmt.Errorf("phonepe: payment initiation rejected: code=%s message=%s", payResp.Code, payResp.Message)
	}
	redirectURL := payResp.Data.InstrumentResponse.RedirectInfo.URL
	if redirectURL == "" {
		return nil, fmt.Errorf("phonepe: redirect URL missing from response")
	}

	return &PayResult{RedirectURL: redirectURL}, nil
}

// DecodeCallback base64-decodes and unmarshals a callback envelope.
func DecodeCallback(base64Envelope string) (*CallbackEnvelope, error) {
	raw, err := base64.StdEncoding.DecodeString(base64Envelope)
	if err != nil {
		return nil, fmt.Errorf("phonepe: failed to decode callback envelope: %w", err)
	}
	var env CallbackEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("phonepe: failed to unmarshal callback envelope: %w", err)
	}
	return &env, nil
}
