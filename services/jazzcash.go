package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"gan-backend/utils"
)

// JazzCashClient talks to the JazzCash mobile-account API. Unlike Easypaisa,
// JazzCash signs with HMAC-SHA256 over a fixed field order, each non-empty
// value prefixed with "&", seeded with the integrity salt.
type JazzCashClient struct {
	MerchantID string
	Password   string
	HashKey    string
	APIURL     string
	Sandbox    bool
}

func NewJazzCashClient() *JazzCashClient {
	apiURL := os.Getenv("JAZZCASH_API_URL")
	if apiURL == "" {
		apiURL = "https://sandbox.jazzcash.com.pk/ApplicationAPI/API/Payment/DoTransaction"
	}
	merchantID := os.Getenv("JAZZCASH_MERCHANT_ID")
	return &JazzCashClient{
		MerchantID: merchantID,
		Password:   os.Getenv("JAZZCASH_PASSWORD"),
		HashKey:    os.Getenv("JAZZCASH_HASH_KEY"),
		APIURL:     apiURL,
		Sandbox:    os.Getenv("DEBUG") == "true" || merchantID == "",
	}
}

// The field order JazzCash hashes over, fixed by their integration guide.
var jazzcashHashFields = []string{
	"pp_Amount", "pp_BillReference", "pp_CNIC", "pp_Description",
	"pp_Language", "pp_MerchantID", "pp_MobileNumber", "pp_Password",
	"pp_TxnCurrency", "pp_TxnDateTime", "pp_TxnExpiryDateTime",
	"pp_TxnRefNo", "pp_TxnType", "pp_Version",
	"ppmpf_1", "ppmpf_2", "ppmpf_3", "ppmpf_4", "ppmpf_5",
}

// InitiatePayment sends an MWALLET charge request to the user's JazzCash
// account. Amount is converted to paisa per their wire format.
func (j *JazzCashClient) InitiatePayment(transactionID string, amountPKR float64, mobileNumber, description string) (*GatewayResult, error) {
	now := time.Now()
	expiry := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())

	payload := map[string]string{
		"pp_Version":           "1.1",
		"pp_TxnType":           "MWALLET",
		"pp_Language":          "EN",
		"pp_MerchantID":        j.MerchantID,
		"pp_Password":          j.Password,
		"pp_TxnRefNo":          transactionID,
		"pp_Amount":            fmt.Sprintf("%d", int(amountPKR*100)),
		"pp_TxnCurrency":       "PKR",
		"pp_TxnDateTime":       now.Format("20060102150405"),
		"pp_TxnExpiryDateTime": expiry.Format("20060102150405"),
		"pp_BillReference":     "GAN",
		"pp_Description":       description,
		"pp_MobileNumber":      formatLocalMobile(mobileNumber),
		"pp_CNIC":              "",
		"ppmpf_1":              "",
		"ppmpf_2":              "",
		"ppmpf_3":              "",
		"ppmpf_4":              "",
		"ppmpf_5":              "",
	}
	payload["pp_SecureHash"] = j.SignPayload(payload)

	if j.Sandbox {
		return &GatewayResult{
			ExternalID: "JC-" + transactionID[:8],
			Message:    "Payment request sent (SANDBOX MODE)",
		}, nil
	}

	form := url.Values{}
	for k, v := range payload {
		form.Set(k, v)
	}
	resp, err := utils.HTTPClient.PostForm(j.APIURL, form)
	if err != nil {
		return nil, fmt.Errorf("jazzcash request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jazzcash API error: status %d", resp.StatusCode)
	}

	var data struct {
		ResponseCode    string `json:"pp_ResponseCode"`
		ResponseMessage string `json:"pp_ResponseMessage"`
		TxnRefNo        string `json:"pp_TxnRefNo"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("jazzcash response: %w", err)
	}
	if data.ResponseCode != "000" {
		return nil, fmt.Errorf("jazzcash error: %s", data.ResponseMessage)
	}
	return &GatewayResult{ExternalID: data.TxnRefNo, Message: "Payment request sent"}, nil
}

// SignPayload computes the pp_SecureHash over the fixed field order.
func (j *JazzCashClient) SignPayload(payload map[string]string) string {
	var b strings.Builder
	b.WriteString(j.HashKey)
	for _, field := range jazzcashHashFields {
		if v := payload[field]; v != "" {
			b.WriteString("&")
			b.WriteString(v)
		}
	}

	mac := hmac.New(sha256.New, []byte(j.HashKey))
	mac.Write([]byte(b.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCallback checks pp_SecureHash on an inbound callback, case-insensitive
// per JazzCash behavior.
func (j *JazzCashClient) VerifyCallback(data map[string]string) bool {
	received := data["pp_SecureHash"]
	if received == "" {
		return false
	}
	expected := j.SignPayload(data)
	return hmac.Equal([]byte(strings.ToLower(received)), []byte(strings.ToLower(expected)))
}
