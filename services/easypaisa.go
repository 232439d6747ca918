package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	"gan-backend/utils"
)

// EasypaisaClient talks to the Easypaisa OTC (over-the-counter) API. Requests
// are signed by concatenating every non-empty field value in sorted key order
// and appending the shared hash key before SHA-256.
type EasypaisaClient struct {
	StoreID string
	HashKey string
	APIURL  string
	Sandbox bool
}

func NewEasypaisaClient() *EasypaisaClient {
	apiURL := os.Getenv("EASYPAISA_API_URL")
	if apiURL == "" {
		apiURL = "https://easypaisa.com.pk/api"
	}
	storeID := os.Getenv("EASYPAISA_STORE_ID")
	return &EasypaisaClient{
		StoreID: storeID,
		HashKey: os.Getenv("EASYPAISA_HASH_KEY"),
		APIURL:  apiURL,
		Sandbox: os.Getenv("DEBUG") == "true" || storeID == "",
	}
}

// GatewayResult is the normalized outcome of a payment initiation.
type GatewayResult struct {
	ExternalID string
	Message    string
}

// InitiatePayment sends a payment request to the user's mobile wallet. The
// merchant order id is our transaction id, which the callback echoes back.
func (e *EasypaisaClient) InitiatePayment(transactionID string, amountPKR float64, mobileNumber, description string) (*GatewayResult, error) {
	payload := map[string]string{
		"orderId":               transactionID,
		"storeId":               e.StoreID,
		"transactionAmount":     fmt.Sprintf("%d", int(amountPKR)),
		"transactionType":       "OTC",
		"mobileAccountNo":       formatLocalMobile(mobileNumber),
		"emailAddress":          "",
		"tokenExpiry":           "20260101 235959",
		"merchantPaymentMethod": "",
		"postBackURL":           os.Getenv("EASYPAISA_RETURN_URL"),
	}
	payload["hashKey"] = e.SignPayload(payload)

	if e.Sandbox {
		return &GatewayResult{
			ExternalID: "EP-" + transactionID[:8],
			Message:    "Payment request sent (SANDBOX MODE)",
		}, nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	resp, err := utils.HTTPClient.Post(e.APIURL+"/initiate", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("easypaisa request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("easypaisa API error: status %d", resp.StatusCode)
	}

	var data struct {
		ResponseCode  string `json:"responseCode"`
		ResponseDesc  string `json:"responseDesc"`
		TransactionID string `json:"transactionId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("easypaisa response: %w", err)
	}
	if data.ResponseCode != "0000" {
		return nil, fmt.Errorf("easypaisa error: %s", data.ResponseDesc)
	}
	return &GatewayResult{ExternalID: data.TransactionID, Message: "Payment request sent"}, nil
}

// SignPayload concatenates the non-empty values in sorted key order, appends
// the shared hash key and hex-encodes the SHA-256 digest.
func (e *EasypaisaClient) SignPayload(payload map[string]string) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		if payload[k] != "" {
			b.WriteString(payload[k])
		}
	}
	b.WriteString(e.HashKey)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// VerifyCallback checks the hashKey field of a callback against the rest of
// the fields. Requests failing this are rejected before any state mutation.
func (e *EasypaisaClient) VerifyCallback(data map[string]string) bool {
	received, ok := data["hashKey"]
	if !ok || received == "" {
		return false
	}
	rest := make(map[string]string, len(data)-1)
	for k, v := range data {
		if k != "hashKey" {
			rest[k] = v
		}
	}
	expected := e.SignPayload(rest)
	return hmac.Equal([]byte(received), []byte(expected))
}

// formatLocalMobile strips + and turns the 92 country prefix into a leading
// zero, the format both gateways expect.
func formatLocalMobile(number string) string {
	number = strings.ReplaceAll(number, "+", "")
	if strings.HasPrefix(number, "92") {
		number = "0" + number[2:]
	}
	return number
}
