package mpesa

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

// Client issues STK push requests against the daraja API.
type Client struct {
	cfg    Config
	tokens *TokenProvider
	client *http.Client
	now    func() time.Time
}

func NewClient(cfg Config, tokens *TokenProvider) *Client {
	return &Client{
		cfg:    cfg,
		tokens: tokens,
		client: &http.Client{Timeout: 30 * time.Second},
		now:    time.Now,
	}
}

// STKPushRequest mirrors the daraja processrequest body. Field names are part
// of the gateway contract and must not change.
type STKPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// STKPush asks the gateway to prompt the payer's device. phone must already be
// normalized to 254XXXXXXXXX.
func (c *Client) STKPush(ctx context.Context, phone string, amount int64, accountReference, description string) (*STKPushResponse, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	password, timestamp := Password(c.cfg.ShortCode, c.cfg.PassKey, c.now())

	payload := STKPushRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            amount,
		PartyA:            phone,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  accountReference,
		TransactionDesc:   description,
	}

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, &GatewayError{Message: "failed to encode STK push request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewBuffer(bodyBytes))
	if err != nil {
		return nil, &GatewayError{Message: "failed to build STK push request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &GatewayError{Message: "STK push request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, &GatewayError{Message: "STK push rejected", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result STKPushResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &GatewayError{Message: "malformed STK push response", StatusCode: resp.StatusCode, Body: string(respBody), Err: err}
	}
	if result.CheckoutRequestID == "" {
		return nil, &GatewayError{Message: "STK push response missing CheckoutRequestID", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return &result, nil
}

// NormalizePhone converts a payer phone number to the 254XXXXXXXXX
// international form: a number already carrying the 254 prefix is kept as-is,
// anything else contributes its last nine digits. Inputs too short to form a
// valid number are rejected.
func NormalizePhone(raw string) (string, error) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()

	if strings.HasPrefix(d, "254") {
		if len(d) != 12 {
			return "", fmt.Errorf("invalid phone number %q, expected 254 followed by 9 digits", raw)
		}
		return d, nil
	}
	if len(d) < 9 {
		return "", fmt.Errorf("invalid phone number %q, expected at least 9 digits", raw)
	}
	return "254" + d[len(d)-9:], nil
}
