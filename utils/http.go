package utils

import (
	"net/http"
	"time"
)

// HTTPClient is shared by the payment gateways, Google OAuth and the WhatsApp
// API. Gateway calls carry a bounded timeout: on expiry the purchase stays
// pending/processing and is reconciled later, never credited speculatively.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}
